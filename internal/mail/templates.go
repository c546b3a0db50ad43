package mail

import (
	"embed"
	"text/template"

	"github.com/valyala/bytebufferpool"
)

//go:embed templates/*.txt
var templateFS embed.FS

var mailTemplates = template.Must(template.ParseFS(templateFS, "templates/*.txt"))

func renderText(name string, vars map[string]any) (string, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := mailTemplates.ExecuteTemplate(buf, name+".txt", vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}
