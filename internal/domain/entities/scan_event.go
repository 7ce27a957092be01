package entities

// ScanEvent is an input to the scan state machine. The set of events is closed.
type ScanEvent interface {
	scanEvent()
}

// LoadStarted begins acquiring the archive byte source
type LoadStarted struct{}

// FileAcquired carries the descriptor of the loaded archive
type FileAcquired struct {
	File          ArchiveFile
	ArchiveSHA256 string
}

// EntriesRead carries the enumerated archive entries
type EntriesRead struct {
	Entries []ArchiveEntry
}

// ScanStarted begins entry classification
type ScanStarted struct{}

// PlistFound records an entry classified as the root Info.plist, before decoding it
type PlistFound struct {
	Entry ArchiveEntry
}

// PlistDecoded carries the decoded root Info.plist
type PlistDecoded struct {
	Plist *PropertyList
}

// CandidateFound records an executable candidate
type CandidateFound struct {
	Entry ArchiveEntry
}

// EntriesClassified ends classification; bundle fields are derived and the executable resolved
type EntriesClassified struct{}

// ExecutableAnalyzed carries the parsed Mach-O metadata of the resolved executable
type ExecutableAnalyzed struct {
	Meta *MachOMeta
}

// ReportAssembled freezes the report and enters the checking phase
type ReportAssembled struct{}

// CheckCompleted ends the checking phase successfully
type CheckCompleted struct{}

// Failed short-circuits the scan to finished with an error
type Failed struct {
	Err error
}

func (LoadStarted) scanEvent()        {}
func (FileAcquired) scanEvent()       {}
func (EntriesRead) scanEvent()        {}
func (ScanStarted) scanEvent()        {}
func (PlistFound) scanEvent()         {}
func (PlistDecoded) scanEvent()       {}
func (CandidateFound) scanEvent()     {}
func (EntriesClassified) scanEvent()  {}
func (ExecutableAnalyzed) scanEvent() {}
func (ReportAssembled) scanEvent()    {}
func (CheckCompleted) scanEvent()     {}
func (Failed) scanEvent()             {}
