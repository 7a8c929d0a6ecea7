// Command schema writes JSON Schemas for level files and the websocket
// protocol into a directory.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/invopop/jsonschema"

	"github.com/jhaladik/christmas-hunt-game/server/application"
)

type document struct {
	file        string
	title       string
	description string
	value       any
}

var documents = []document{
	{"level.schema.json", "Level", "Level file loaded through LEVEL_FILE.", new(application.Level)},
	{"join.schema.json", "join", "First message a session must send.", new(application.JoinRequest)},
	{"move.schema.json", "move", "Movement input, one step per message.", new(application.MoveRequest)},
	{"throw.schema.json", "throwSnowball", "Throw a snowball at a world point.", new(application.ThrowSnowballRequest)},
	{"collect.schema.json", "collect", "Pick up a gift in reach.", new(application.CollectRequest)},
	{"welcome.schema.json", "welcome", "Room state sent after a join.", new(application.WelcomeEvent)},
	{"round-end.schema.json", "roundEnd", "Result of a finished round.", new(application.RoundEndEvent)},
}

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "", "directory to write the JSON schemas")
	flag.Parse()

	if outDir == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create schema directory: %v\n", err)
		os.Exit(1)
	}

	for _, doc := range documents {
		if err := writeSchema(filepath.Join(outDir, doc.file), buildSchema(doc)); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", doc.file, err)
			os.Exit(1)
		}
	}
}

func buildSchema(doc document) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(doc.value)
	schema.Title = doc.title
	schema.Description = doc.description
	return schema
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
