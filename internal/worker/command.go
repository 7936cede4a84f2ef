package worker

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// commandContext — данные для рендеринга шаблона команды demux.
//
// Доступны в шаблоне как {{.Tarball}}, {{.Lane}} и т.д.
// Пути — абсолютные, на локальном диске воркера.
type commandContext struct {
	// RunID — идентификатор run.
	RunID string

	// Tarball — абсолютный путь сводного tar-архива run.
	Tarball string

	// Lane — индекс lane (1-based).
	Lane uint

	// OutDir — абсолютный путь выходной папки lane.
	OutDir string

	// Quality — порог качества (25 или 20).
	Quality int

	// MaxReads — лимит reads на tile.
	MaxReads uint

	// MaxRecords — лимит записей, удерживаемых в памяти.
	MaxRecords uint

	// Center — метка sequencing center; пустая строка, если не задана.
	Center string
}

// commandFuncs — дополнительные функции для шаблонов команд.
var commandFuncs = template.FuncMap{
	// quote — одинарные кавычки для shell
	"quote": func(s string) string {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	},

	// lower — приводит к нижнему регистру
	"lower": strings.ToLower,

	// trim — удаляет пробелы по краям
	"trim": strings.TrimSpace,
}

// renderCommand рендерит шаблон команды с контекстом.
//
// Шаблон — обычный Go template:
//
//	demux-lane --tarball {{.Tarball}} --lane {{.Lane}}{{if .Center}} --center {{quote .Center}}{{end}}
func renderCommand(tmpl string, ctx commandContext) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("command").Funcs(commandFuncs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCommandRender, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCommandRender, err)
	}
	return buf.String(), nil
}
