package model

// AlumniRecord is a row of the authoritative alumni table. The application
// never writes it; it only serves as a comparison oracle for admins.
type AlumniRecord struct {
	FullName    string `json:"full_name"`
	RollNo      string `json:"roll_no"`
	PassingYear string `json:"passing_year"`
	Branch      string `json:"branch"`
}
