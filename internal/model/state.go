package model

import "time"

// InquiriesState is client-side view of inquiries
type InquiriesState struct {
	Inquiries       []*Inquiry `json:"inquiries"`
	SelectedInquiry *Inquiry   `json:"selectedInquiry"`
	IsLoading       bool       `json:"isLoading"`
	Error           *string    `json:"error"`
	IsOffline       bool       `json:"isOffline"`
	LastFetchedAt   *time.Time `json:"lastFetchedAt"`
}

// Copy returns deep copy of the state
func (s InquiriesState) Copy() InquiriesState {
	c := s
	c.Inquiries = CopyInquiries(s.Inquiries)
	c.SelectedInquiry = s.SelectedInquiry.Copy()
	c.Error = copyPtr(s.Error)
	c.LastFetchedAt = copyPtr(s.LastFetchedAt)
	return c
}

// CopyInquiries deep copies list of inquiries
func CopyInquiries(src []*Inquiry) []*Inquiry {
	if src == nil {
		return nil
	}

	dst := make([]*Inquiry, 0, len(src))
	for _, i := range src {
		dst = append(dst, i.Copy())
	}
	return dst
}
