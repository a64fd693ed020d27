package scans

// Fingerprint is the kind-specific compact representation of reference
// content: a single hash for audio, per-segment hashes for video, a
// transcript (plus optional embedding vector) for text. It is owned by
// the scan invocation that produced it and is never cached across scans.
type Fingerprint struct {
	AudioHash   string
	VideoHashes []string
	Transcript  string
	Embedding   []float32
}

// Present reports whether the fingerprint carries any usable signal for
// the given kind. An absent signal is a valid "no match" outcome, not an
// extraction error.
func (f Fingerprint) Present(kind ScanType) bool {
	switch kind {
	case TypeAudio:
		return f.AudioHash != ""
	case TypeVideo:
		return len(f.VideoHashes) > 0
	case TypeText:
		return f.Transcript != ""
	default:
		return false
	}
}
