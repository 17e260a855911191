package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/guarzo/repolookup/common/model"
)

func render(out io.Writer, format string, res model.Result) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return renderTable(out, res)
}

func renderTable(out io.Writer, res model.Result) error {
	switch res.Status.State {
	case model.StateIdle:
		_, err := fmt.Fprintln(out, "nothing to look up")
		return err
	case model.StateError:
		_, err := fmt.Fprintf(out, "%s: %s\n", res.Target, res.Status)
		return err
	}

	if _, err := fmt.Fprintf(out, "%s (id %s): %d public repositories\n", res.Login, res.NumericID, len(res.Repositories)); err != nil {
		return err
	}
	if len(res.Repositories) == 0 {
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Name", "Description", "Language", "Stars", "URL", "Homepage"})
	for _, repo := range res.Repositories {
		t.AppendRow(table.Row{repo.Name, repo.Description, repo.Language, repo.Stars, repo.URL, repo.HomepageURL})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}
