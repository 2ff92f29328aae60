package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifound/lostfound/internal/domain/entity"
)

type fakeDirectory struct {
	orgs        map[string]*entity.Organization
	enterprises map[string]*entity.Enterprise
}

func (d *fakeDirectory) GetOrganization(ctx context.Context, id string) (*entity.Organization, error) {
	return d.orgs[id], nil
}

func (d *fakeDirectory) GetEnterprise(ctx context.Context, id string) (*entity.Enterprise, error) {
	return d.enterprises[id], nil
}

func testDirectory() *fakeDirectory {
	return &fakeDirectory{
		orgs: map[string]*entity.Organization{
			"ORG-A":     {ID: "ORG-A", EnterpriseID: "ENT-UNI", Name: "East Campus Office", OwnerRole: "ORG-A_ROLE"},
			"LOGAN-ORG": {ID: "LOGAN-ORG", EnterpriseID: "ENT-AIR", Name: "Logan Terminal B", OwnerRole: "AIRPORT_LOST_FOUND_SPECIALIST"},
			"PD-ORG":    {ID: "PD-ORG", EnterpriseID: "ENT-PD", Name: "Evidence Desk", OwnerRole: "POLICE"},
		},
		enterprises: map[string]*entity.Enterprise{
			"ENT-UNI":  {ID: "ENT-UNI", Name: "University", Type: entity.EnterpriseTypeUniversity, CoordinatorRole: "CAMPUS_COORDINATOR"},
			"ENT-MBTA": {ID: "ENT-MBTA", Name: "MBTA", Type: entity.EnterpriseTypeTransit, CoordinatorRole: "TRANSIT_COORDINATOR"},
			"ENT-AIR":  {ID: "ENT-AIR", Name: "Logan Airport", Type: entity.EnterpriseTypeAirport, CoordinatorRole: "AIRPORT_COORDINATOR"},
			"ENT-PD":   {ID: "ENT-PD", Name: "Police Department", Type: entity.EnterpriseTypePolice, CoordinatorRole: "POLICE"},
		},
	}
}

func claimRequest(value float64, holdingType string) *entity.WorkRequest {
	return &entity.WorkRequest{
		RequestType:               entity.RequestTypeItemClaim,
		RequesterEnterpriseID:     "ENT-UNI",
		RequesterOrganizationID:   "ORG-A",
		TargetEnterpriseID:        "ENT-UNI",
		TargetOrganizationID:      "ORG-A",
		ItemHoldingEnterpriseType: holdingType,
		EstimatedValue:            value,
		Payload:                   &entity.ItemClaimPayload{ItemID: "ITM-1"},
	}
}

func TestResolve_ClaimLowValue(t *testing.T) {
	resolver := NewResolver(testDirectory(), DefaultPolicy())

	chain, err := resolver.Resolve(context.Background(), claimRequest(50, ""))

	require.NoError(t, err)
	assert.Equal(t, []string{"ORG-A_ROLE"}, chain)
}

func TestResolve_ClaimHighValueAppendsPolice(t *testing.T) {
	resolver := NewResolver(testDirectory(), DefaultPolicy())

	chain, err := resolver.Resolve(context.Background(), claimRequest(750, ""))

	require.NoError(t, err)
	assert.Equal(t, []string{"ORG-A_ROLE", "POLICE"}, chain)
}

func TestResolve_ClaimThresholdIsInclusive(t *testing.T) {
	resolver := NewResolver(testDirectory(), DefaultPolicy())

	chain, err := resolver.Resolve(context.Background(), claimRequest(500, ""))

	require.NoError(t, err)
	assert.Contains(t, chain, "POLICE")
}

func TestResolve_ClaimForeignHoldingEnterprise(t *testing.T) {
	resolver := NewResolver(testDirectory(), DefaultPolicy())

	// University requester, item physically at the airport
	chain, err := resolver.Resolve(context.Background(), claimRequest(50, entity.EnterpriseTypeAirport))

	require.NoError(t, err)
	assert.Equal(t, []string{"ORG-A_ROLE", "AIRPORT_LOST_FOUND_SPECIALIST"}, chain)
}

func TestResolve_ClaimHoldingTypeMatchesRequester(t *testing.T) {
	resolver := NewResolver(testDirectory(), DefaultPolicy())

	// Holding enterprise type equals the requester's own type: no extra step
	chain, err := resolver.Resolve(context.Background(), claimRequest(50, entity.EnterpriseTypeUniversity))

	require.NoError(t, err)
	assert.Equal(t, []string{"ORG-A_ROLE"}, chain)
}

func TestResolve_ClaimFullChain(t *testing.T) {
	resolver := NewResolver(testDirectory(), DefaultPolicy())

	chain, err := resolver.Resolve(context.Background(), claimRequest(900, entity.EnterpriseTypeAirport))

	require.NoError(t, err)
	assert.Equal(t, []string{"ORG-A_ROLE", "AIRPORT_LOST_FOUND_SPECIALIST", "POLICE"}, chain)
}

func TestResolve_ClaimDeduplicatesRoles(t *testing.T) {
	resolver := NewResolver(testDirectory(), DefaultPolicy())

	// High-value claim targeted at the police's own org: POLICE appears once
	request := claimRequest(900, "")
	request.TargetOrganizationID = "PD-ORG"
	request.TargetEnterpriseID = "ENT-PD"

	chain, err := resolver.Resolve(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, []string{"POLICE"}, chain)
}

func TestResolve_UnknownTargetOrganizationFailsClosed(t *testing.T) {
	resolver := NewResolver(testDirectory(), DefaultPolicy())

	request := claimRequest(50, "")
	request.TargetOrganizationID = "ORG-NOWHERE"

	_, err := resolver.Resolve(context.Background(), request)

	var routingErr *RoutingError
	require.Error(t, err)
	assert.True(t, errors.As(err, &routingErr))
	assert.Contains(t, routingErr.Reason, "ORG-NOWHERE")
}

func TestResolve_UnknownRequesterEnterpriseFailsClosed(t *testing.T) {
	resolver := NewResolver(testDirectory(), DefaultPolicy())

	request := claimRequest(50, entity.EnterpriseTypeAirport)
	request.RequesterEnterpriseID = "ENT-GHOST"

	_, err := resolver.Resolve(context.Background(), request)

	var routingErr *RoutingError
	require.Error(t, err)
	assert.True(t, errors.As(err, &routingErr))
}

func TestResolve_UnmappedHoldingTypeFailsClosed(t *testing.T) {
	policy := DefaultPolicy()
	delete(policy.SpecialistRoles, entity.EnterpriseTypeAirport)
	resolver := NewResolver(testDirectory(), policy)

	_, err := resolver.Resolve(context.Background(), claimRequest(50, entity.EnterpriseTypeAirport))

	var routingErr *RoutingError
	require.Error(t, err)
	assert.True(t, errors.As(err, &routingErr))
	assert.Contains(t, routingErr.Reason, "specialist role")
}

func TestResolve_Transfer(t *testing.T) {
	resolver := NewResolver(testDirectory(), DefaultPolicy())

	for _, requestType := range []entity.RequestType{
		entity.RequestTypeCrossCampusTransfer,
		entity.RequestTypeTransitTransfer,
		entity.RequestTypeAirportTransfer,
	} {
		t.Run(string(requestType), func(t *testing.T) {
			request := &entity.WorkRequest{
				RequestType:           requestType,
				RequesterEnterpriseID: "ENT-MBTA",
				TargetEnterpriseID:    "ENT-UNI",
				TargetOrganizationID:  "ORG-A",
			}

			chain, err := resolver.Resolve(context.Background(), request)

			require.NoError(t, err)
			assert.Equal(t, []string{"ORG-A_ROLE"}, chain)
		})
	}
}

func TestResolve_Emergency(t *testing.T) {
	resolver := NewResolver(testDirectory(), DefaultPolicy())

	request := &entity.WorkRequest{
		RequestType:           entity.RequestTypeMBTAEmergency,
		RequesterEnterpriseID: "ENT-MBTA",
		TargetEnterpriseID:    "ENT-AIR",
		TargetOrganizationID:  "LOGAN-ORG",
	}

	chain, err := resolver.Resolve(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, []string{"AIRPORT_LOST_FOUND_SPECIALIST"}, chain)
}

func TestResolve_PoliceEvidenceUsesConfiguredChain(t *testing.T) {
	policy := DefaultPolicy()
	policy.EvidenceChain = []string{"POLICE", "CAMPUS_COORDINATOR"}
	resolver := NewResolver(testDirectory(), policy)

	request := &entity.WorkRequest{
		RequestType:          entity.RequestTypePoliceEvidence,
		TargetOrganizationID: "ORG-A",
	}

	chain, err := resolver.Resolve(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, []string{"POLICE", "CAMPUS_COORDINATOR"}, chain)
}

func TestResolve_DisputeOrdersCoordinators(t *testing.T) {
	resolver := NewResolver(testDirectory(), DefaultPolicy())

	request := &entity.WorkRequest{
		RequestType:           entity.RequestTypeDispute,
		RequesterEnterpriseID: "ENT-UNI",
		TargetEnterpriseID:    "ENT-AIR",
		Payload: &entity.MultiEnterpriseDisputePayload{
			ItemID:                "ITM-1",
			Summary:               "two claimants",
			InvolvedEnterpriseIDs: []string{"ENT-MBTA", "ENT-UNI"},
		},
	}

	chain, err := resolver.Resolve(context.Background(), request)

	require.NoError(t, err)
	// Requester first, then target, then extras; repeat enterprises collapse
	assert.Equal(t, []string{"CAMPUS_COORDINATOR", "AIRPORT_COORDINATOR", "TRANSIT_COORDINATOR"}, chain)
}

func TestResolve_DisputeUnknownEnterpriseFailsClosed(t *testing.T) {
	resolver := NewResolver(testDirectory(), DefaultPolicy())

	request := &entity.WorkRequest{
		RequestType:           entity.RequestTypeDispute,
		RequesterEnterpriseID: "ENT-UNI",
		TargetEnterpriseID:    "ENT-GHOST",
		Payload:               &entity.MultiEnterpriseDisputePayload{ItemID: "ITM-1", Summary: "s"},
	}

	_, err := resolver.Resolve(context.Background(), request)

	var routingErr *RoutingError
	require.Error(t, err)
	assert.True(t, errors.As(err, &routingErr))
	assert.Contains(t, routingErr.Reason, "ENT-GHOST")
}

func TestResolve_IsDeterministic(t *testing.T) {
	resolver := NewResolver(testDirectory(), DefaultPolicy())
	request := claimRequest(900, entity.EnterpriseTypeAirport)

	first, err := resolver.Resolve(context.Background(), request)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := resolver.Resolve(context.Background(), request)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
