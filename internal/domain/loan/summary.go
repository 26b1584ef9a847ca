package loan

// Summary buckets a user's applications for the "my applications" header.
type Summary struct {
	Total       int `json:"total"`
	Draft       int `json:"draft"`
	Pending     int `json:"pending"`
	InProgress  int `json:"in_progress"`
	Eligible    int `json:"eligible"`
	NotEligible int `json:"not_eligible"`
	Active      int `json:"active"`
}

func Summarize(apps []Application) Summary {
	s := Summary{Total: len(apps)}
	for _, a := range apps {
		switch a.Status {
		case StatusDraft:
			s.Draft++
		case StatusKYCPending, StatusCreditCheckPending:
			s.Pending++
		case StatusKYCCompleted, StatusCreditCheckCompleted:
			s.InProgress++
		case StatusEligible:
			s.Eligible++
		case StatusNotEligible:
			s.NotEligible++
		case StatusNone:
		}
		if !IsComplete(a.Status) {
			s.Active++
		}
	}
	return s
}
