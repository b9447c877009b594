package event

import "github.com/geocoder89/yardsale/internal/apperr"

var (
	ErrNotFound = apperr.NotFound("Event.NotFound", "event not found")

	ErrTitleRequired              = apperr.Validation("Event.TitleRequired", "title is required")
	ErrTitleLength                = apperr.Validation("Event.TitleLength", "title must be between 3 and 200 characters")
	ErrDescriptionTooLong         = apperr.Validation("Event.DescriptionTooLong", "description cannot exceed 2000 characters")
	ErrInstructionsTooLong        = apperr.Validation("Event.InstructionsTooLong", "special instructions cannot exceed 1000 characters")
	ErrInvalidType                = apperr.Validation("Event.InvalidType", "event type is not supported")
	ErrOrganizerRequired          = apperr.Validation("Event.OrganizerRequired", "organizer id is required")
	ErrInvalidContactEmail        = apperr.Validation("Event.InvalidContactEmail", "contact email is not a valid address")
	ErrInvalidContactPhone        = apperr.Validation("Event.InvalidContactPhone", "contact phone is not a valid number")
	ErrEarlyBirdFeeWithoutFlag    = apperr.Validation("Event.EarlyBirdFeeWithoutFlag", "early-bird fee requires early-bird access to be enabled")
	ErrEarlyBirdOffsetWithoutFlag = apperr.Validation("Event.EarlyBirdOffsetWithoutFlag", "early-bird time requires early-bird access to be enabled")
	ErrInvalidEarlyBirdOffset     = apperr.Validation("Event.InvalidEarlyBirdOffset", "early-bird access must open between 0 and 2 hours before start")
	ErrFeeCurrencyMismatch        = apperr.Validation("Event.FeeCurrencyMismatch", "early-bird fee and entry fee must use the same currency")
	ErrReasonRequired             = apperr.Validation("Event.ReasonRequired", "a reason is required")
	ErrReasonTooLong              = apperr.Validation("Event.ReasonTooLong", "reason cannot exceed 500 characters")
	ErrCannotModifyPublishedEvent = apperr.Conflict("Event.CannotModifyPublishedEvent", "only draft events can be modified")
	ErrCannotPublish              = apperr.Conflict("Event.CannotPublish", "event cannot be published in its current status")
	ErrAlreadyCancelled           = apperr.Conflict("Event.AlreadyCancelled", "event is already cancelled")
	ErrCannotCancelCompleted      = apperr.Conflict("Event.CannotCancelCompleted", "completed events cannot be cancelled")
	ErrCannotPostponeCompleted    = apperr.Conflict("Event.CannotPostponeCompleted", "completed events cannot be postponed")
	ErrAlreadyDeleted             = apperr.Conflict("Event.AlreadyDeleted", "event is already deleted")
	ErrCannotModifyCompletedEvent = apperr.Conflict("Event.CannotModifyCompletedEvent", "completed events cannot be modified")
	ErrScheduleConflict           = apperr.Conflict("Event.ScheduleConflict", "organizer already has an overlapping event at this location")
	ErrNotPublished               = apperr.Validation("Event.NotPublished", "event must be published or active")
	ErrAlreadyStarted             = apperr.Validation("Event.AlreadyStarted", "event has already started")
	ErrContactRequired            = apperr.Validation("Event.ContactRequired", "at least one contact method is required to publish")
	ErrDescriptionRequired        = apperr.Validation("Event.DescriptionRequired", "description is required to publish")
	ErrAddressIncomplete          = apperr.Validation("Event.AddressIncomplete", "a complete address is required to publish")
	ErrDurationExceedsTypeLimit   = apperr.Validation("Event.DurationExceedsTypeLimit", "event runs longer than allowed for its type")
	ErrEarlyBirdFeeAboveEntryFee  = apperr.Validation("Event.EarlyBirdFeeAboveEntryFee", "early-bird fee cannot exceed the regular entry fee")
	ErrGarageSaleWeekday          = apperr.Validation("Event.GarageSaleWeekday", "garage sales should start on a Friday, Saturday or Sunday")
)
