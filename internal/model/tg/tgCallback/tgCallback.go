package tgCallback

// Callback buttons uniques
const (
	Page   string = "page"   // data is the requested page number
	Export string = "export" // export current results to xlsx
	Reset  string = "reset"
)
