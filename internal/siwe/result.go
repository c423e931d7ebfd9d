package siwe

// Reason names why a verification attempt was rejected.
type Reason string

const (
	ReasonMalformedMessage Reason = "malformed_message"
	ReasonDomainMismatch   Reason = "domain_mismatch"
	ReasonChainMismatch    Reason = "chain_mismatch"
	ReasonExpired          Reason = "expired"
	ReasonNotYetValid      Reason = "not_yet_valid"
	ReasonSignatureInvalid Reason = "signature_invalid"
	ReasonNonceReplay      Reason = "nonce_replay"
)

// Result is the outcome of a verification attempt: either accepted with the
// proven address and chain, or rejected with the first failing reason.
type Result struct {
	Accepted bool
	Address  string
	ChainID  int64
	Nonce    string
	Reason   Reason
	Detail   string
}

func accepted(msg *Message) Result {
	return Result{
		Accepted: true,
		Address:  msg.Address,
		ChainID:  msg.ChainID,
		Nonce:    msg.Nonce,
	}
}

func rejected(reason Reason, detail string) Result {
	return Result{Reason: reason, Detail: detail}
}
