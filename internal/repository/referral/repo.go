// Package referral persists Referral documents.
package referral

import (
	"context"
	"encoding/json"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domreferral "github.com/sibyl-dev/sibyl/internal/domain/referral"
	"github.com/sibyl-dev/sibyl/internal/repository/docstore"
)

// referralDTO is the stored JSON form of a Referral.
type referralDTO struct {
	ReferralID string         `json:"referral_id"`
	Property   map[string]any `json:"property,omitempty"`
}

// Repo implements the referral repositories consumed by the usecases.
type Repo struct {
	col *docstore.Collection[referralDTO]
}

// New creates a referral repository.
func New(s docstore.Store, prefix string) *Repo {
	codec := docstore.Codec[referralDTO]{
		Marshal: func(dto referralDTO) ([]byte, error) { return json.Marshal(dto) },
		Unmarshal: func(raw []byte) (referralDTO, error) {
			var dto referralDTO
			err := json.Unmarshal(raw, &dto)
			return dto, err
		},
	}
	return &Repo{col: docstore.New(s, prefix, "referral", codec, domain.ErrReferralNotFound)}
}

// Put stores a referral, creating or replacing it.
func (r *Repo) Put(ctx context.Context, ref domreferral.Referral) error {
	return r.col.Put(ctx, ref.ID(), toDTO(ref))
}

// Get returns a referral by id.
func (r *Repo) Get(ctx context.Context, id string) (domreferral.Referral, error) {
	dto, err := r.col.Get(ctx, id)
	if err != nil {
		return domreferral.Referral{}, err
	}
	return fromDTO(dto), nil
}

// IDs returns all referral ids, sorted.
func (r *Repo) IDs(ctx context.Context) ([]string, error) {
	return r.col.IDs(ctx)
}

// Delete removes a referral.
func (r *Repo) Delete(ctx context.Context, id string) error {
	return r.col.Delete(ctx, id)
}

func toDTO(ref domreferral.Referral) referralDTO {
	return referralDTO{ReferralID: ref.ID(), Property: ref.Property()}
}

func fromDTO(dto referralDTO) domreferral.Referral {
	return domreferral.Reconstruct(dto.ReferralID, dto.Property)
}
