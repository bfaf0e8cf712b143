package ir

// Version constants for the record model and the verifier.
const (
	// LatestRecordVersion is the newest account record version. Actions that
	// rewrite the record must emit this version.
	LatestRecordVersion uint32 = 4

	// VerifierVersion is the accountcell verifier version.
	VerifierVersion = "0.3.0"
)
