package pipeline

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"secsum/internal/fileutil"
	"secsum/internal/services"
	"secsum/internal/summary"
	"secsum/internal/textutil"
)

// artifact is the persisted JSON shape. Summaries holds []summary.Output
// in structured mode and flattened []summary.Payload otherwise.
type artifact struct {
	Symbol     string `json:"symbol"`
	Document   string `json:"document"`
	Collection string `json:"collection,omitempty"`
	Summaries  any    `json:"summaries"`
}

// writeArtifact persists the document's summaries atomically and
// returns the artifact path. Re-runs overwrite the same path.
func (p *Pipeline) writeArtifact(symbol, collection, docName string, outputs []summary.Output) (string, error) {
	doc := artifact{
		Symbol:     symbol,
		Document:   docName,
		Collection: collection,
		Summaries:  outputs,
	}
	if !p.cfg.RequireJSON {
		payloads := make([]summary.Payload, 0, len(outputs))
		for _, out := range outputs {
			payloads = append(payloads, out.Summary)
		}
		doc.Summaries = payloads
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "pipeline", "artifact",
			fmt.Sprintf("encoding summaries for %s", docName), err)
	}
	path := filepath.Join(p.cfg.OutputDir, artifactFileName(symbol, p.cfg.Keyword, docName))
	if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}
	return path, nil
}

// artifactFileName builds the deterministic artifact name
// <symbol>_<keyword-slug>_<document-stem>.summary.json.
func artifactFileName(symbol, keyword, docName string) string {
	stem := strings.TrimSuffix(docName, filepath.Ext(docName))
	return fmt.Sprintf("%s_%s_%s.summary.json",
		strings.ToLower(symbol), textutil.Slugify(keyword), textutil.SafeName(stem))
}

func documentName(path string) string {
	return filepath.Base(path)
}
