package terminal

import (
	"fmt"
	"io"

	"ui_autoid/application/watcher"
	"ui_autoid/domain/entities"
	"ui_autoid/infrastructure/dom"
)

// Annotate labels every qualifying element of an HTML document and writes
// the result to out. url is recorded on the assignments.
func Annotate(w *watcher.Watcher, in io.Reader, out io.Writer, url string) ([]entities.Assignment, error) {
	doc, err := dom.Parse(in)
	if err != nil {
		return nil, err
	}
	doc.SetURL(url)

	var assignments []entities.Assignment
	sub, err := doc.Source().Subscribe(func(batch entities.MutationBatch) {
		assignments = append(assignments, w.Process(batch)...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to annotate document: %w", err)
	}
	defer sub.Stop()

	if err := doc.Render(out); err != nil {
		return nil, err
	}
	return assignments, nil
}
