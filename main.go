package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/redis/v3"
	"github.com/khanghh/kmfa/internal/audit"
	"github.com/khanghh/kmfa/internal/auth"
	"github.com/khanghh/kmfa/internal/config"
	"github.com/khanghh/kmfa/internal/handlers/api"
	"github.com/khanghh/kmfa/internal/mail"
	"github.com/khanghh/kmfa/internal/middlewares"
	"github.com/khanghh/kmfa/internal/store"
	"github.com/khanghh/kmfa/internal/twofactor"
	"github.com/khanghh/kmfa/internal/users"
	"github.com/khanghh/kmfa/model"
	"github.com/khanghh/kmfa/params"
	goredis "github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
	gitTag    string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
	keySizeFlag = &cli.IntFlag{
		Name:  "size",
		Usage: "Key size in bytes",
		Value: 32,
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "kmfa - Account authentication server with TOTP two-factor support"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
		{
			Name:  "genkey",
			Usage: "Print a random key for signingKey or encryptionKey",
			Flags: []cli.Flag{keySizeFlag},
			Action: func(ctx *cli.Context) error {
				size := ctx.Int(keySizeFlag.Name)
				if size < params.MinSigningKeyLength {
					return fmt.Errorf("key size must be at least %d bytes", params.MinSigningKeyLength)
				}
				buf := make([]byte, size)
				if _, err := rand.Read(buf); err != nil {
					return err
				}
				fmt.Println(base64.RawURLEncoding.EncodeToString(buf))
				return nil
			},
		},
	}
	app.Action = run
}

func mustInitLogger(debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func mustInitDatabase(dbConfig config.MySQLConfig) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dbConfig.Dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dbConfig.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if len(dbConfig.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(dbConfig.Replicas))
		for _, dsn := range dbConfig.Replicas {
			replicas = append(replicas, mysql.Open(dsn))
		}
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			slog.Error("Failed to register database replicas", "error", err)
			os.Exit(1)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Failed to access database pool", "error", err)
		os.Exit(1)
	}
	if dbConfig.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	}
	if dbConfig.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	}
	if dbConfig.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)
	}

	if err := model.AutoMigrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	return db
}

// mustInitStorage returns the key-value storage for refresh and recovery
// tokens. The redis client is also returned so readiness checks can ping it.
func mustInitStorage(storageCfg config.StorageConfig) (store.Storage, goredis.UniversalClient) {
	switch storageCfg.Backend {
	case "redis":
		redisStorage := redis.New(redis.Config{
			URL:           storageCfg.Redis.URL,
			PoolSize:      storageCfg.Redis.PoolSize,
			IsClusterMode: storageCfg.Redis.ClusterMode,
		})
		return store.NewRedisStorage(redisStorage.Conn()), redisStorage.Conn()
	case "memory":
		return store.NewMemoryStorage(config.DefaultMemoryGCInterval), nil
	}
	slog.Error("Unsupported storage backend", "backend", storageCfg.Backend)
	os.Exit(1)
	return nil, nil
}

func mustInitMailSender(mailCfg config.MailConfig) mail.MailSender {
	switch mailCfg.Backend {
	case "", "none":
		slog.Warn("Mail backend disabled, security notifications will not be delivered")
		return mail.NullMailSender{}
	case "smtp":
		sender, err := mail.NewSMTPMailSender(mail.SMTPConfig{
			Host:     mailCfg.SMTP.Host,
			Port:     mailCfg.SMTP.Port,
			Username: mailCfg.SMTP.Username,
			Password: mailCfg.SMTP.Password,
			TLS:      mailCfg.SMTP.TLS,
			CertFile: mailCfg.SMTP.CertFile,
			KeyFile:  mailCfg.SMTP.KeyFile,
			CAFile:   mailCfg.SMTP.CAFile,
		}, mailCfg.From)
		if err != nil {
			slog.Error("Failed to initialize SMTP mail sender", "error", err)
			os.Exit(1)
		}
		return sender
	}
	slog.Error("Unsupported mail sender backend", "backend", mailCfg.Backend)
	os.Exit(1)
	return nil
}

func mustInitAuthService(config *config.Config, db *gorm.DB, storage store.Storage, mailSender mail.MailSender) *auth.AuthService {
	passwordHasher := users.NewPasswordHasher(config.Hash.PasswordCost)
	backupCodeHasher := users.NewPasswordHasher(config.Hash.BackupCodeCost)

	vault, err := twofactor.NewVault(config.EncryptionKey)
	if err != nil {
		slog.Error("Failed to initialize secret vault", "error", err)
		os.Exit(1)
	}
	backupCodes, err := twofactor.NewBackupCodeManager(backupCodeHasher, params.BackupCodeCount)
	if err != nil {
		slog.Error("Failed to initialize backup code manager", "error", err)
		os.Exit(1)
	}
	tokenIssuer, err := auth.NewTokenIssuer(config.SigningKey, config.IssuerName, nil)
	if err != nil {
		slog.Error("Failed to initialize token issuer", "error", err)
		os.Exit(1)
	}

	authService, err := auth.NewAuthService(auth.AuthServiceOptions{
		Store:            users.NewCredentialStore(db),
		Hasher:           passwordHasher,
		Vault:            vault,
		TOTP:             twofactor.NewTOTP(),
		BackupCodes:      backupCodes,
		Tokens:           tokenIssuer,
		Storage:          storage,
		Auditor:          audit.NewRecorder(audit.NewAuditEventRepository(db)),
		Notifier:         mail.NewNotifier(mailSender, config.IssuerName),
		IssuerName:       config.IssuerName,
		AccessTokenTTL:   config.Token.AccessTokenTTL,
		RefreshTokenTTL:  config.Token.RefreshTokenTTL,
		RecoveryTokenTTL: config.Token.RecoveryTokenTTL,
	})
	if err != nil {
		slog.Error("Failed to initialize auth service", "error", err)
		os.Exit(1)
	}
	return authService
}

func run(ctx *cli.Context) error {
	config, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return err
	}

	mustInitLogger(config.Debug || ctx.IsSet(debugFlag.Name))

	db := mustInitDatabase(config.MySQL)
	storage, rdb := mustInitStorage(config.Storage)
	defer storage.Close()
	mailSender := mustInitMailSender(config.Mail)
	authService := mustInitAuthService(config, db, storage, mailSender)

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(logger.New())
	router.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(config.AllowOrigins, ", "),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	router.Use(middlewares.ClientInfo())
	api.SetupRoutes(router, authService)

	healthCheckCtx, term := context.WithCancel(ctx.Context)
	done := make(chan struct{})
	go startHealthCheckServer(healthCheckCtx, done, rdb, db)
	defer func() {
		term()
		<-done
	}()
	return router.Listen(config.ListenAddr)
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
