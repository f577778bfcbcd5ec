package testhelper

// FakeSigner returns a fixed token, making outbound auth deterministic.
type FakeSigner struct {
	Token string
	JTIs  []string
}

func (s *FakeSigner) SignedToken(requestID string) (string, error) {
	s.JTIs = append(s.JTIs, requestID)
	if s.Token == "" {
		return "fake-token", nil
	}
	return s.Token, nil
}
