package routing

import "github.com/unifound/lostfound/internal/domain/entity"

// Policy holds the configurable pieces of chain resolution. The police
// value threshold and the fixed chains are operator policy, not hard facts.
type Policy struct {
	// PoliceValueThreshold is the estimated value at or above which a
	// claim gains a police verification step.
	PoliceValueThreshold float64

	// PoliceRole is the role appended for high-value claims.
	PoliceRole string

	// EmergencyRole approves MBTA-to-airport emergency requests.
	EmergencyRole string

	// EvidenceChain is the fixed chain for police evidence requests.
	EvidenceChain []string

	// SpecialistRoles maps an enterprise type to its lost-and-found
	// specialist role.
	SpecialistRoles map[string]string
}

// DefaultPolicy returns the baseline routing policy
func DefaultPolicy() Policy {
	return Policy{
		PoliceValueThreshold: 500,
		PoliceRole:           "POLICE",
		EmergencyRole:        "AIRPORT_LOST_FOUND_SPECIALIST",
		EvidenceChain:        []string{"POLICE"},
		SpecialistRoles: map[string]string{
			entity.EnterpriseTypeUniversity: "CAMPUS_COORDINATOR",
			entity.EnterpriseTypeTransit:    "TRANSIT_LOST_FOUND_SPECIALIST",
			entity.EnterpriseTypeAirport:    "AIRPORT_LOST_FOUND_SPECIALIST",
			entity.EnterpriseTypePolice:     "POLICE",
		},
	}
}
