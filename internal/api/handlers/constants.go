package handlers

const (
	contentTypeMIDI = "audio/midi"

	// Upper bound on request bodies; melodies sent for evaluation stay small
	maxBodyBytes = 1 << 20
)
