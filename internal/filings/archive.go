package filings

import (
	"path/filepath"
	"strings"
)

// archiveDirName is the directory under downloads_dir holding all filings.
const archiveDirName = "sec-edgar-filings"

// Reference identifies one downloaded filing document on disk.
type Reference struct {
	Symbol      string
	FormType    string
	AccessionID string
	Path        string
}

// NormalizeSymbol canonicalizes a ticker symbol for archive paths and
// remote lookups.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ArchiveRoot returns the root of the local filing archive.
func ArchiveRoot(downloadsDir string) string {
	return filepath.Join(downloadsDir, archiveDirName)
}

// FormDir returns the directory holding every downloaded filing of the
// mode's form type for one symbol.
func FormDir(downloadsDir, symbol string, mode Mode) string {
	return filepath.Join(ArchiveRoot(downloadsDir), NormalizeSymbol(symbol), mode.FormType())
}

// AccessionDir returns the directory for a single filing, keyed by its
// accession number.
func AccessionDir(downloadsDir, symbol string, mode Mode, accession string) string {
	return filepath.Join(FormDir(downloadsDir, symbol, mode), accession)
}
