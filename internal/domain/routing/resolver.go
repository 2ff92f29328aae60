package routing

import (
	"context"
	"fmt"

	"github.com/unifound/lostfound/internal/domain/entity"
)

// Directory is the org/enterprise lookup the resolver depends on
type Directory interface {
	// GetOrganization returns nil when the organization is unknown
	GetOrganization(ctx context.Context, id string) (*entity.Organization, error)

	// GetEnterprise returns nil when the enterprise is unknown
	GetEnterprise(ctx context.Context, id string) (*entity.Enterprise, error)
}

// Resolver computes the ordered role chain a request must pass through.
// The chain is a pure function of the request's routing fields plus the
// directory and policy; it never depends on the clock or the caller.
type Resolver struct {
	directory Directory
	policy    Policy
}

// NewResolver creates a chain resolver
func NewResolver(directory Directory, policy Policy) *Resolver {
	return &Resolver{
		directory: directory,
		policy:    policy,
	}
}

// Resolve returns the approval chain for a request. It fails closed: any
// unresolvable destination, unmapped enterprise type, or empty chain is a
// RoutingError, never a silently shortened chain.
func (r *Resolver) Resolve(ctx context.Context, request *entity.WorkRequest) ([]string, error) {
	var chain []string
	var err error

	switch request.RequestType {
	case entity.RequestTypeItemClaim:
		chain, err = r.resolveClaim(ctx, request)
	case entity.RequestTypeCrossCampusTransfer,
		entity.RequestTypeTransitTransfer,
		entity.RequestTypeAirportTransfer:
		chain, err = r.resolveTransfer(ctx, request)
	case entity.RequestTypeMBTAEmergency:
		chain, err = r.resolveEmergency(request)
	case entity.RequestTypePoliceEvidence:
		chain, err = r.resolveEvidence(request)
	case entity.RequestTypeDispute:
		chain, err = r.resolveDispute(ctx, request)
	default:
		return nil, NewRoutingError(string(request.RequestType), "unknown request type")
	}

	if err != nil {
		return nil, err
	}

	chain = dedupeRoles(chain)
	if len(chain) == 0 {
		return nil, NewRoutingError(string(request.RequestType), "resolved chain is empty")
	}

	return chain, nil
}

// resolveClaim builds: target org owner role, then the holding enterprise's
// specialist when the item sits with a foreign enterprise, then police for
// high-value claims.
func (r *Resolver) resolveClaim(ctx context.Context, request *entity.WorkRequest) ([]string, error) {
	ownerRole, err := r.ownerRoleOf(ctx, request.TargetOrganizationID, request.RequestType)
	if err != nil {
		return nil, err
	}
	chain := []string{ownerRole}

	if request.ItemHoldingEnterpriseType != "" {
		requesterEnterprise, err := r.directory.GetEnterprise(ctx, request.RequesterEnterpriseID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up requester enterprise: %w", err)
		}
		if requesterEnterprise == nil {
			return nil, NewRoutingError(string(request.RequestType),
				fmt.Sprintf("unknown requester enterprise %s", request.RequesterEnterpriseID))
		}

		if request.ItemHoldingEnterpriseType != requesterEnterprise.Type {
			specialist, ok := r.policy.SpecialistRoles[request.ItemHoldingEnterpriseType]
			if !ok || specialist == "" {
				return nil, NewRoutingError(string(request.RequestType),
					fmt.Sprintf("no specialist role mapped for enterprise type %s", request.ItemHoldingEnterpriseType))
			}
			chain = append(chain, specialist)
		}
	}

	if request.EstimatedValue >= r.policy.PoliceValueThreshold {
		if r.policy.PoliceRole == "" {
			return nil, NewRoutingError(string(request.RequestType), "police role is not configured")
		}
		chain = append(chain, r.policy.PoliceRole)
	}

	return chain, nil
}

// resolveTransfer routes to the destination organization's owner role. The
// initiating specialist approves by construction and never appears in the
// chain; the destination acts via confirm-pickup.
func (r *Resolver) resolveTransfer(ctx context.Context, request *entity.WorkRequest) ([]string, error) {
	ownerRole, err := r.ownerRoleOf(ctx, request.TargetOrganizationID, request.RequestType)
	if err != nil {
		return nil, err
	}
	return []string{ownerRole}, nil
}

func (r *Resolver) resolveEmergency(request *entity.WorkRequest) ([]string, error) {
	if r.policy.EmergencyRole == "" {
		return nil, NewRoutingError(string(request.RequestType), "emergency role is not configured")
	}
	return []string{r.policy.EmergencyRole}, nil
}

func (r *Resolver) resolveEvidence(request *entity.WorkRequest) ([]string, error) {
	if len(r.policy.EvidenceChain) == 0 {
		return nil, NewRoutingError(string(request.RequestType), "evidence chain is not configured")
	}
	chain := make([]string, len(r.policy.EvidenceChain))
	copy(chain, r.policy.EvidenceChain)
	return chain, nil
}

// resolveDispute collects the coordinator role of every disputing
// enterprise: requester, target, then any extra enterprises named by the
// payload, in that order.
func (r *Resolver) resolveDispute(ctx context.Context, request *entity.WorkRequest) ([]string, error) {
	enterpriseIDs := []string{request.RequesterEnterpriseID, request.TargetEnterpriseID}
	if payload, ok := request.Payload.(*entity.MultiEnterpriseDisputePayload); ok {
		enterpriseIDs = append(enterpriseIDs, payload.InvolvedEnterpriseIDs...)
	}

	var chain []string
	seen := make(map[string]bool)
	for _, id := range enterpriseIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		enterprise, err := r.directory.GetEnterprise(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to look up enterprise: %w", err)
		}
		if enterprise == nil {
			return nil, NewRoutingError(string(request.RequestType),
				fmt.Sprintf("unknown enterprise %s", id))
		}
		if enterprise.CoordinatorRole == "" {
			return nil, NewRoutingError(string(request.RequestType),
				fmt.Sprintf("enterprise %s has no coordinator role", id))
		}
		chain = append(chain, enterprise.CoordinatorRole)
	}

	return chain, nil
}

// ownerRoleOf resolves the role owning an organization, failing closed on
// unknown organizations or organizations without an owner role.
func (r *Resolver) ownerRoleOf(ctx context.Context, organizationID string, requestType entity.RequestType) (string, error) {
	if organizationID == "" {
		return "", NewRoutingError(string(requestType), "target organization is not set")
	}

	org, err := r.directory.GetOrganization(ctx, organizationID)
	if err != nil {
		return "", fmt.Errorf("failed to look up organization: %w", err)
	}
	if org == nil {
		return "", NewRoutingError(string(requestType),
			fmt.Sprintf("unknown target organization %s", organizationID))
	}
	if org.OwnerRole == "" {
		return "", NewRoutingError(string(requestType),
			fmt.Sprintf("organization %s has no owner role", organizationID))
	}

	return org.OwnerRole, nil
}

// dedupeRoles removes repeated roles keeping first occurrence order
func dedupeRoles(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	out := roles[:0]
	for _, role := range roles {
		if role == "" || seen[role] {
			continue
		}
		seen[role] = true
		out = append(out, role)
	}
	return out
}
