package entities

// ScanStatus is the lifecycle phase of a scan
type ScanStatus string

// Scan phases in forward order
const (
	StatusIdle     ScanStatus = "idle"
	StatusLoading  ScanStatus = "loading"
	StatusRead     ScanStatus = "read"
	StatusScanning ScanStatus = "scanning"
	StatusChecking ScanStatus = "checking"
	StatusFinished ScanStatus = "finished"
)

var statusOrder = map[ScanStatus]int{
	StatusIdle:     0,
	StatusLoading:  1,
	StatusRead:     2,
	StatusScanning: 3,
	StatusChecking: 4,
	StatusFinished: 5,
}

// Rank returns the position of the phase in the forward order, -1 if unknown
func (s ScanStatus) Rank() int {
	r, ok := statusOrder[s]
	if !ok {
		return -1
	}
	return r
}

// Outcome tells how a finished scan ended; it is only set on the final message
type Outcome string

// Scan outcomes
const (
	OutcomeNone      Outcome = ""
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Verdict labels used in reports
const (
	ResultNative    = "native"
	ResultNonNative = "non-native"
)

// ScanMessage is one progress notification emitted by a scan
type ScanMessage struct {
	ScanID   string     `json:"scanId"`
	Sequence int        `json:"sequence"`
	Status   ScanStatus `json:"status"`
	Message  string     `json:"message"`
	Data     any        `json:"data,omitempty"`
	Error    *ScanError `json:"error,omitempty"`
	Final    bool       `json:"final"`
	Outcome  Outcome    `json:"outcome,omitempty"`
}

// Report returns the scan report carried by a successful final message
func (m ScanMessage) Report() (*ScanReport, bool) {
	if !m.Final || m.Outcome != OutcomeSucceeded {
		return nil, false
	}
	r, ok := m.Data.(*ScanReport)
	return r, ok
}

// Detail is one labelled line of bundle information
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ScanReport is the final result of a successful scan
type ScanReport struct {
	Filename               string                   `json:"filename"`
	AppVersion             string                   `json:"appVersion"`
	DisplayName            string                   `json:"displayName"`
	Result                 string                   `json:"result"` // ResultNative or ResultNonNative
	MachOMeta              MachOMeta                `json:"machoMeta"`
	InfoPlist              *PropertyList            `json:"infoPlist"`
	BundleExecutable       string                   `json:"bundleExecutable"`
	BinarySize             int64                    `json:"binarySize"`
	DisplayBinarySize      string                   `json:"displayBinarySize"`
	Details                []Detail                 `json:"details"`
	SupportedArchitectures []ArchitectureDescriptor `json:"supportedArchitectures"`
	ArchiveSHA256          string                   `json:"archiveSHA256,omitempty"`
}

// Native reports whether the verdict is native
func (r *ScanReport) Native() bool {
	return r != nil && r.Result == ResultNative
}

// ScanState is the scan model owned by one orchestrator. It is treated as a value:
// transitions return a modified copy and never mutate slices in place.
type ScanState struct {
	ScanID   string
	Sequence int
	Status   ScanStatus

	ArchiveFile          *ArchiveFile
	Entries              []ArchiveEntry
	InfoPlist            *PropertyList
	InfoPlistPath        string
	ExecutableCandidates []ArchiveEntry
	BundleExecutable     *ArchiveEntry
	MachOMeta            *MachOMeta

	AppVersion           string
	DisplayName          string
	Details              []Detail
	BinarySize           int64
	DisplayBinarySize    string
	BinarySupportsNative bool
	ArchiveSHA256        string

	Info *ScanReport
	Err  *ScanError
}

// Terminal reports whether the scan reached finished
func (s ScanState) Terminal() bool {
	return s.Status == StatusFinished
}
