package records

import (
	"encoding/json"
	"time"
)

// PolicyRecord is one policyholder form as stored in the owner's
// customers-record-lists collection. Policyholder attributes are embedded so
// they serialise flat, next to the nested family and policy sections.
// Attributes without a typed field are kept in Extra and written back flat.
type PolicyRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`

	Policyholder

	FamilyMembers  []FamilyMember `json:"familyMembers,omitempty"`
	CurrentPolicy  *PolicyDetail  `json:"currentPolicy,omitempty"`
	PreviousPolicy *PolicyDetail  `json:"previousPolicy,omitempty"`

	Extra Extra `json:"-"`
}

type Policyholder struct {
	Date                      string `json:"date,omitempty"`
	Name                      string `json:"name" validate:"required,max=200"`
	Email                     string `json:"email,omitempty" validate:"omitempty,email"`
	AadhaarNumber             string `json:"aadhaarNumber,omitempty"`
	PanNumber                 string `json:"panNumber,omitempty"`
	AadhaarLinkedMobileNumber string `json:"aadhaarLinkedMobileNumber,omitempty"`
	BirthPlace                string `json:"birthPlace,omitempty"`
	FatherName                string `json:"fatherName,omitempty"`
	MotherName                string `json:"motherName,omitempty"`
	SpouseName                string `json:"spouseName,omitempty"`
	Address                   string `json:"address,omitempty"`
	DateOfBirth               string `json:"dateOfBirth,omitempty"`
	Age                       string `json:"age,omitempty"`
	Occupation                string `json:"occupation,omitempty"`
	EducationalQualification  string `json:"educationalQualification,omitempty"`
	DesignationOfPolicyHolder string `json:"designationOfPolicyHolder,omitempty"`
	AnnualIncome              string `json:"annualIncome,omitempty"`
	PeriodOfService           string `json:"periodOfService,omitempty"`
	EmployerName              string `json:"employerName,omitempty"`
	NameOfNominee             string `json:"nameOfNominee,omitempty"`
	AgeOfNominee              string `json:"ageOfNominee,omitempty"`
	RelationName              string `json:"relationName,omitempty"`
	LastChildBirthDate        string `json:"lastChildBirthDate,omitempty"`
	Height                    string `json:"height,omitempty"`
	Weight                    string `json:"weight,omitempty"`
	BankAccountNumber         string `json:"bankAccountNumber,omitempty"`
	IFSCCode                  string `json:"ifscCode,omitempty"`
	BankName                  string `json:"bankName,omitempty"`
	BranchName                string `json:"branchName,omitempty"`
}

type FamilyMember struct {
	Relationship string `json:"relationship"`
	CurrentAge   string `json:"currentAge"`
	Health       string `json:"health"`
	DeathAge     string `json:"deathAge"`
	Reason       string `json:"reason"`

	Extra Extra `json:"-"`
}

type PolicyDetail struct {
	PolicyNumber    string `json:"policyNumber"`
	PlanAndTerm     string `json:"planAndTerm"`
	SumAssured      string `json:"sumAssured"`
	ModeOfPayment   string `json:"modeOfPayment"`
	Branch          string `json:"branch"`
	LastPaymentDate string `json:"lastPaymentDate"`

	Extra Extra `json:"-"`
}

// Patch is a shallow merge: each top-level key replaces the stored value of
// the same JSON field.
type Patch map[string]json.RawMessage

var defaultRelationships = []string{"Father", "Mother", "Brother", "Sister", "Children"}

// NewDraft returns an empty record with the usual family rows pre-filled.
func NewDraft() PolicyRecord {
	members := make([]FamilyMember, 0, len(defaultRelationships))
	for _, relationship := range defaultRelationships {
		members = append(members, FamilyMember{Relationship: relationship})
	}
	return PolicyRecord{
		FamilyMembers:  members,
		CurrentPolicy:  &PolicyDetail{},
		PreviousPolicy: &PolicyDetail{},
	}
}
