package vfs

import (
	"path/filepath"
	"strings"
)

// Entry categories surfaced in FileEntry.Type. Directories are always
// "folder"; files fall back to "file" when the extension is unknown.
const (
	KindFolder       = "folder"
	KindDocument     = "document"
	KindSpreadsheet  = "spreadsheet"
	KindPresentation = "presentation"
	KindImage        = "image"
	KindVideo        = "video"
	KindArchive      = "archive"
	KindAudio        = "audio"
	KindPDF          = "pdf"
	KindFile         = "file"
)

var kindByExtension = map[string]string{}

func init() {
	byKind := map[string][]string{
		KindDocument:     {".doc", ".docx", ".odt", ".rtf"},
		KindSpreadsheet:  {".csv", ".xls", ".xlsx", ".ods", ".tsv"},
		KindPresentation: {".ppt", ".pptx", ".odp", ".key"},
		KindImage:        {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg", ".ico", ".tif", ".tiff", ".heic"},
		KindVideo:        {".mp4", ".mkv", ".avi", ".mov", ".wmv", ".webm", ".flv", ".m4v", ".mpg", ".mpeg"},
		KindArchive:      {".zip", ".rar", ".7z", ".tar", ".gz", ".bz2", ".xz", ".tgz"},
		KindAudio:        {".mp3", ".wav", ".flac", ".ogg", ".aac", ".m4a", ".wma", ".opus"},
		KindPDF:          {".pdf"},
	}
	for kind, exts := range byKind {
		for _, ext := range exts {
			kindByExtension[ext] = kind
		}
	}
}

// Classify maps a file name to its entry category by extension.
func Classify(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if kind, ok := kindByExtension[ext]; ok {
		return kind
	}
	return KindFile
}
