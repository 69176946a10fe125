package template

import (
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	logger "go-campaign-api/src/infrastructure/logger"
	"go-campaign-api/src/infrastructure/utils"
)

// Renderer renders campaign message templates for individual recipients.
// Templates are files named <templateRef>.tmpl under TEMPLATE_DIR, using
// text/template with the recipient context as data. Parsed templates are
// cached; template files do not change while a campaign is running.
type Renderer struct {
	dir    string
	mu     sync.Mutex
	cache  map[string]*template.Template
	Logger *logger.Logger
}

func NewRenderer(loggerInstance *logger.Logger) *Renderer {
	return &Renderer{
		dir:    utils.GetEnv("TEMPLATE_DIR", "./templates"),
		cache:  map[string]*template.Template{},
		Logger: loggerInstance,
	}
}

// Render produces the message body for one recipient
func (r *Renderer) Render(templateRef string, recipientContext map[string]string) (string, error) {
	tmpl, err := r.lookup(templateRef)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	if err := tmpl.Execute(&out, recipientContext); err != nil {
		return "", err
	}
	return out.String(), nil
}

func (r *Renderer) lookup(templateRef string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.cache[templateRef]; ok {
		return tmpl, nil
	}
	// Base strips any path components out of the ref
	path := filepath.Join(r.dir, filepath.Base(templateRef)+".tmpl")
	tmpl, err := template.New(filepath.Base(path)).Option("missingkey=zero").ParseFiles(path)
	if err != nil {
		return nil, err
	}
	r.cache[templateRef] = tmpl
	return tmpl, nil
}
