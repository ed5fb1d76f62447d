package domain

import "errors"

var (
	// ErrEntityNotFound signals a missing entity.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrRowNotFound signals a row id absent from an entity.
	ErrRowNotFound = errors.New("row not found")
	// ErrFeatureNotFound signals a missing feature.
	ErrFeatureNotFound = errors.New("feature not found")
	// ErrCategoryNotFound signals a missing category.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrModelNotFound signals a missing model.
	ErrModelNotFound = errors.New("model not found")
	// ErrTrainingSetNotFound signals a missing training set.
	ErrTrainingSetNotFound = errors.New("training set not found")
	// ErrGroupNotFound signals a missing entity group.
	ErrGroupNotFound = errors.New("group not found")
	// ErrEventNotFound signals a missing event.
	ErrEventNotFound = errors.New("event not found")
	// ErrContextNotFound signals a missing UI context.
	ErrContextNotFound = errors.New("context not found")
	// ErrReferralNotFound signals a missing referral.
	ErrReferralNotFound = errors.New("referral not found")

	// ErrDuplicateKey signals a unique-key constraint violation on insert.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrValidation signals a schema constraint violated on write.
	ErrValidation = errors.New("validation error")

	// ErrMissingParameter signals a required request parameter is absent.
	ErrMissingParameter = errors.New("missing parameter")
	// ErrInvalidType signals a request parameter of the wrong type.
	ErrInvalidType = errors.New("invalid parameter type")
	// ErrValidationFailed signals a request parameter rejected by its validator.
	ErrValidationFailed = errors.New("parameter validation failed")

	// ErrAmbiguousSelection signals a multi-eid × multi-row fan-out conflict.
	ErrAmbiguousSelection = errors.New("ambiguous selection: only one of eids and row_ids may have more than one element")
	// ErrMissingComponent signals an absent optional model component
	// (explainer or training set) on a model that otherwise exists.
	ErrMissingComponent = errors.New("missing model component")
	// ErrDeserialization signals a stored binary that cannot be reconstructed.
	ErrDeserialization = errors.New("deserialization error")
	// ErrTrainingSetInUse denies deleting a training set referenced by a model.
	ErrTrainingSetInUse = errors.New("training set referenced by a model")

	// ErrUnknownFeature signals a change targeting an unregistered feature.
	ErrUnknownFeature = errors.New("unknown feature")
	// ErrTypeMismatch signals a change value incompatible with the feature type.
	ErrTypeMismatch = errors.New("feature type mismatch")
)
