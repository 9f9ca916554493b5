package workflows

import (
	"bytes"
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/rangerwatch/ranger-report-api/cloudinary"
	"github.com/rangerwatch/ranger-report-api/databases"
	"github.com/rangerwatch/ranger-report-api/geotag"
	"github.com/rangerwatch/ranger-report-api/models"
)

// Lifecycle drives a report from submission through triage to resolution.
type Lifecycle struct {
	Reports databases.ReportDatabase
	Rangers databases.RangerDatabase
	Relay   cloudinary.Relay

	// Geo decodes GPS coordinates out of photo bytes. Defaults to
	// geotag.Extract; replaceable in tests.
	Geo func(io.Reader) (*geotag.Coordinates, error)
}

// NewLifecycle builds a Lifecycle over the given stores and image relay.
func NewLifecycle(reports databases.ReportDatabase, rangers databases.RangerDatabase, relay cloudinary.Relay) *Lifecycle {
	return &Lifecycle{
		Reports: reports,
		Rangers: rangers,
		Relay:   relay,
		Geo:     geotag.Extract,
	}
}

// SubmitInput carries everything a ranger provides on the report form,
// plus the submitter identity taken from the session.
type SubmitInput struct {
	RangerID   string
	RangerName string
	Condition  string
	Notes      string
	Photo      []byte
}

// UpdateInput is a partial edit of an existing report. Nil fields are left
// untouched; a non-empty Photo replaces the stored image.
type UpdateInput struct {
	Condition *string
	Notes     *string
	Photo     []byte
}

// Submit validates and stores a new field report. When a photo is present it
// is relayed to external storage before the row is inserted, so a relay
// failure never leaves a report referencing a missing image. Coordinates come
// from the photo's EXIF metadata when available.
func (l *Lifecycle) Submit(ctx context.Context, in SubmitInput) (*models.Report, error) {
	if !models.ValidCondition(in.Condition) {
		return nil, &ValidationError{Field: "condition", Reason: "must be one of Good, Moderate, Bad"}
	}
	if in.RangerID == "" {
		return nil, &ValidationError{Field: "rangerId", Reason: "must not be empty"}
	}

	report := models.Report{
		ID:         primitive.NewObjectID(),
		RangerID:   in.RangerID,
		RangerName: in.RangerName,
		Condition:  in.Condition,
		Notes:      in.Notes,
		Status:     models.StatusNew,
		AssignedTo: nil,
		CreatedAt:  primitive.NewDateTimeFromTime(time.Now().UTC()),
	}

	if len(in.Photo) > 0 {
		img, err := l.Relay.Upload(ctx, bytes.NewReader(in.Photo))
		if err != nil {
			return nil, &UploadError{Op: "upload", Err: err}
		}
		report.ImageURL = img.URL
		report.ImagePublicID = img.PublicID

		if coords, err := l.Geo(bytes.NewReader(in.Photo)); err == nil && coords != nil {
			report.Latitude = &coords.Latitude
			report.Longitude = &coords.Longitude
		}
	}

	if _, err := l.Reports.InsertOne(ctx, report); err != nil {
		return nil, storeErr(err)
	}

	zap.S().Infow("report submitted", "reportId", report.ID.Hex(), "rangerId", report.RangerID, "condition", report.Condition)
	return &report, nil
}

// UpdateContent applies a partial edit to a report. A new photo re-derives
// coordinates from its metadata; when the new photo carries no GPS data the
// report keeps its previous coordinates.
func (l *Lifecycle) UpdateContent(ctx context.Context, reportID primitive.ObjectID, in UpdateInput) (*models.Report, error) {
	report, err := l.Reports.FindOne(ctx, bson.M{"_id": reportID})
	if err != nil {
		return nil, storeErr(err)
	}

	set := bson.M{}
	if in.Condition != nil {
		if !models.ValidCondition(*in.Condition) {
			return nil, &ValidationError{Field: "condition", Reason: "must be one of Good, Moderate, Bad"}
		}
		report.Condition = *in.Condition
		set["condition"] = report.Condition
	}
	if in.Notes != nil {
		report.Notes = *in.Notes
		set["notes"] = report.Notes
	}

	if len(in.Photo) > 0 {
		img, err := l.Relay.Upload(ctx, bytes.NewReader(in.Photo))
		if err != nil {
			return nil, &UploadError{Op: "upload", Err: err}
		}
		oldPublicID := report.ImagePublicID
		report.ImageURL = img.URL
		report.ImagePublicID = img.PublicID
		set["imageUrl"] = img.URL
		set["imagePublicId"] = img.PublicID

		if coords, err := l.Geo(bytes.NewReader(in.Photo)); err == nil && coords != nil {
			report.Latitude = &coords.Latitude
			report.Longitude = &coords.Longitude
			set["latitude"] = coords.Latitude
			set["longitude"] = coords.Longitude
		}

		if oldPublicID != "" && oldPublicID != img.PublicID {
			if err := l.Relay.Destroy(ctx, oldPublicID); err != nil {
				zap.S().Warnw("failed to remove replaced report photo", "publicId", oldPublicID, "error", err)
			}
		}
	}

	if len(set) == 0 {
		return report, nil
	}

	if err := l.Reports.UpdateOne(ctx, bson.M{"_id": reportID}, bson.M{"$set": set}); err != nil {
		return nil, storeErr(err)
	}
	return report, nil
}

// Assign sets or clears a report's assignee. A non-empty rangerID must name
// an active ranger; an empty rangerID unassigns.
func (l *Lifecycle) Assign(ctx context.Context, reportID primitive.ObjectID, rangerID string) error {
	if _, err := l.Reports.FindOne(ctx, bson.M{"_id": reportID}); err != nil {
		return storeErr(err)
	}

	var assigned interface{}
	if rangerID != "" {
		ranger, err := l.Rangers.FindOne(ctx, bson.M{"rangerId": rangerID})
		if err != nil {
			if serr := storeErr(err); serr == ErrNotFound {
				return &ValidationError{Field: "assignedTo", Reason: "ranger is not in the active registry"}
			}
			return storeErr(err)
		}
		if ranger.Status != models.RangerActive {
			return &ValidationError{Field: "assignedTo", Reason: "ranger is not in the active registry"}
		}
		assigned = rangerID
	}

	if err := l.Reports.UpdateOne(ctx, bson.M{"_id": reportID}, bson.M{"$set": bson.M{"assignedTo": assigned}}); err != nil {
		return storeErr(err)
	}
	return nil
}

// SetStatus moves a report to any of the known statuses. Assignment is left
// untouched; a resolved report keeps its assignee.
func (l *Lifecycle) SetStatus(ctx context.Context, reportID primitive.ObjectID, status string) error {
	if !models.ValidStatus(status) {
		return &ValidationError{Field: "status", Reason: "must be one of new, monitoring, resolved"}
	}
	if _, err := l.Reports.FindOne(ctx, bson.M{"_id": reportID}); err != nil {
		return storeErr(err)
	}
	if err := l.Reports.UpdateOne(ctx, bson.M{"_id": reportID}, bson.M{"$set": bson.M{"status": status}}); err != nil {
		return storeErr(err)
	}
	return nil
}

// SetAdminNotes overwrites the triage notes on a report.
func (l *Lifecycle) SetAdminNotes(ctx context.Context, reportID primitive.ObjectID, notes string) error {
	if _, err := l.Reports.FindOne(ctx, bson.M{"_id": reportID}); err != nil {
		return storeErr(err)
	}
	if err := l.Reports.UpdateOne(ctx, bson.M{"_id": reportID}, bson.M{"$set": bson.M{"adminNotes": notes}}); err != nil {
		return storeErr(err)
	}
	return nil
}

// Delete removes a report permanently. The hosted photo is destroyed first,
// best-effort: a relay failure is logged and the row delete proceeds.
func (l *Lifecycle) Delete(ctx context.Context, reportID primitive.ObjectID) error {
	report, err := l.Reports.FindOne(ctx, bson.M{"_id": reportID})
	if err != nil {
		return storeErr(err)
	}

	if report.ImagePublicID != "" {
		if err := l.Relay.Destroy(ctx, report.ImagePublicID); err != nil {
			zap.S().Warnw("failed to remove hosted report photo", "reportId", reportID.Hex(), "publicId", report.ImagePublicID, "error", err)
		}
	}

	if err := l.Reports.DeleteOne(ctx, bson.M{"_id": reportID}); err != nil {
		return storeErr(err)
	}
	zap.S().Infow("report deleted", "reportId", reportID.Hex())
	return nil
}
