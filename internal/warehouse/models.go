package warehouse

// Table is the warehouse table name. Column names are lowercase so the same
// SQL works unquoted on every dialect.
const Table = "grades"

// RankedResult is one ranked section: a (subject, class_num, instructor,
// semester) combination with its derived rates.
type RankedResult struct {
	Subject       string  `json:"subject"`
	ClassNum      string  `json:"class_num"`
	ClassTitle    string  `json:"class_title"`
	Instructor    string  `json:"instructor"`
	Semester      string  `json:"semester"`
	TotalStudents int64   `json:"total_students"`
	ARate         float64 `json:"A_rate"`
	DFWRate       float64 `json:"DFW_rate"`
	Year          *int    `json:"year"`
}

// DetailRow is one semester of a per-semester drill-down. Rates are rounded
// to one decimal place.
type DetailRow struct {
	Semester      string  `json:"semester"`
	Subject       string  `json:"subject"`
	ClassNum      string  `json:"class_num"`
	ClassTitle    string  `json:"class_title"`
	Instructor    string  `json:"instructor"`
	TotalStudents int64   `json:"total_students"`
	ARate         float64 `json:"A_rate"`
	DFWRate       float64 `json:"DFW_rate"`
	Year          *int    `json:"year"`
}

// MaxDetailRows caps every details response.
const MaxDetailRows = 20
