package domain

// AnalysisMode selects what is done with an uploaded image.
type AnalysisMode string

const (
	ModeNone     AnalysisMode = ""
	ModeTextOnly AnalysisMode = "text_only"
	ModeVisual   AnalysisMode = "visual"
	ModeFull     AnalysisMode = "full"
)

func ParseAnalysisMode(s string) (AnalysisMode, bool) {
	switch m := AnalysisMode(s); m {
	case ModeNone, ModeTextOnly, ModeVisual, ModeFull:
		return m, true
	}
	return ModeNone, false
}

func (m AnalysisMode) WantsOCR() bool {
	return m == ModeTextOnly || m == ModeFull
}

func (m AnalysisMode) WantsImage() bool {
	return m == ModeVisual || m == ModeFull
}

// Attachment is an uploaded file with its per-file options.
type Attachment struct {
	Name      string
	MIMEType  string
	Data      []byte
	IsScanned bool
	Mode      AnalysisMode
}

// Image is an encoded image ready for a vision model.
type Image struct {
	MIMEType string
	Data     []byte
}
