package domain

import "fmt"

// DNSResponse represents a complete DNS response with answers, authority, and additional sections.
// This follows RFC 1035 §4.1.1 structure for DNS response messages.
type DNSResponse struct {
	ID                 uint16
	Question           Question
	Authoritative      bool
	RecursionAvailable bool
	RCode              RCode
	Answers            []ResourceRecord
	Authority          []ResourceRecord
	Additional         []ResourceRecord
}

// NewAuthoritativeResponse starts a reply to q: the ID and question are copied,
// AA and RA are set, and all sections are empty.
func NewAuthoritativeResponse(q Question) DNSResponse {
	return DNSResponse{
		ID:                 q.ID,
		Question:           q,
		Authoritative:      true,
		RecursionAvailable: true,
		RCode:              RCodeNoError,
	}
}

// Validate checks whether the DNSResponse fields are structurally valid.
func (resp DNSResponse) Validate() error {
	if !resp.RCode.IsValid() {
		return fmt.Errorf("invalid RCode: %d", resp.RCode)
	}
	if err := resp.Question.Validate(); err != nil {
		return fmt.Errorf("invalid question: %w", err)
	}

	sections := []struct {
		name    string
		records []ResourceRecord
	}{
		{"answer", resp.Answers},
		{"authority", resp.Authority},
		{"additional", resp.Additional},
	}
	for _, s := range sections {
		for i, rr := range s.records {
			if err := rr.Validate(); err != nil {
				return fmt.Errorf("invalid %s record at index %d: %w", s.name, i, err)
			}
		}
	}
	return nil
}

// IsError returns true if the response indicates an error condition.
func (resp DNSResponse) IsError() bool {
	return resp.RCode != RCodeNoError
}

// AnswerCount returns the number of answer records in the response.
func (resp DNSResponse) AnswerCount() int {
	return len(resp.Answers)
}

// AuthorityCount returns the number of authority records in the response.
func (resp DNSResponse) AuthorityCount() int {
	return len(resp.Authority)
}

// AdditionalCount returns the number of additional records in the response.
func (resp DNSResponse) AdditionalCount() int {
	return len(resp.Additional)
}
