// Command formctl edits a form definition pair from the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	flag "github.com/spf13/pflag"

	"formbuilder/internal/formschema"
	"formbuilder/internal/notify"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	schemaPath := flag.StringP("schema", "s", "schema.json", "data schema file (.json or .yaml)")
	uiPath := flag.StringP("uischema", "u", "uischema.json", "ui schema file (.json or .yaml)")
	flag.Parse()

	if err := run(context.Background(), *schemaPath, *uiPath, surveyPrompter{}); err != nil {
		if errors.Is(err, errAborted) {
			os.Exit(130)
		}
		log.Fatalf("formctl: %v", err)
	}
}

func run(ctx context.Context, schemaPath, uiPath string, p prompter) error {
	form, err := formschema.LoadBaseline(existing(schemaPath), existing(uiPath))
	if err != nil {
		return fmt.Errorf("load form: %w", err)
	}

	forms := formschema.NewStore(form, notify.NewLogNotifier(nil))
	s := &session{forms: forms, prompt: p, out: os.Stdout}
	save, err := s.run(ctx)
	if err != nil || !save {
		return err
	}

	out := forms.Form()
	if err := formschema.SaveDocument(schemaPath, out.Schema); err != nil {
		return fmt.Errorf("save schema: %w", err)
	}
	if err := formschema.SaveDocument(uiPath, out.UISchema); err != nil {
		return fmt.Errorf("save uischema: %w", err)
	}
	fmt.Fprintf(os.Stdout, "wrote %s and %s\n", schemaPath, uiPath)
	return nil
}

// existing returns path when it names a file, or "" so the embedded
// baseline is used for a form that has not been saved yet.
func existing(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
