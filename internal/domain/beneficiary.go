package domain

// BeneficiaryRef is a read-only reference to a beneficiary owned by the
// membership directory. The financing engine never mutates beneficiaries.
type BeneficiaryRef struct {
	ID          string
	DisplayName string
}
