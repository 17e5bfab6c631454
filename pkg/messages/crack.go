package messages

// CrackRequest asks a rainbow worker to recover the plaintext of Hash, a hex
// encoded SHA-1 digest.
type CrackRequest struct {
	RequestId string `json:"requestId"`
	Hash      string `json:"hash"`
}

type CrackResponse struct {
	Id        string `json:"id"`
	RequestId string `json:"requestId"`
	Hash      string `json:"hash"`
	Found     bool   `json:"found"`
	Plaintext string `json:"plaintext,omitempty"`
	Error     string `json:"error,omitempty"`
}
