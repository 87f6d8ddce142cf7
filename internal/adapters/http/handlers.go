package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/twpayne/go-polyline"

	"github.com/samirrijal/markermove/internal/core/domain"
)

// fixRequest is the body of POST /v1/markers/:id/fixes.
type fixRequest struct {
	Lat      *float64   `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon      *float64   `json:"lon" validate:"required,gte=-180,lte=180"`
	Source   string     `json:"source" validate:"omitempty,oneof=gps feed replay"`
	Time     *time.Time `json:"time"`
	Accuracy *float64   `json:"accuracy" validate:"omitempty,gte=0"`
	Speed    *float64   `json:"speed" validate:"omitempty,gte=0"`
}

// tapRequest is the body of POST /v1/markers/:id/taps.
type tapRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

// headingQuery holds the query parameters of GET /v1/heading.
type headingQuery struct {
	FromLat *float64 `query:"from_lat" validate:"required,gte=-90,lte=90"`
	FromLon *float64 `query:"from_lon" validate:"required,gte=-180,lte=180"`
	ToLat   *float64 `query:"to_lat" validate:"required,gte=-90,lte=90"`
	ToLon   *float64 `query:"to_lon" validate:"required,gte=-180,lte=180"`
}

// Track is a recorded marker track. Exactly one of Fixes and Polyline is
// set, depending on the requested format.
type Track struct {
	MarkerID string       `json:"marker_id"`
	Count    int          `json:"count"`
	Fixes    []domain.Fix `json:"fixes,omitempty"`
	Polyline string       `json:"polyline,omitempty"`
}

// markerParam copies the :id route param out of the request buffer. The id
// outlives the request as a tracker key, frame subject and cache key.
func markerParam(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("id"))
}

// IngestFixHandler accepts one location fix for a marker.
func IngestFixHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := markerParam(c)
		if err := validateMarkerID(id); err != nil {
			return errBadRequest(c, err.Error())
		}

		var req fixRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := validate.Struct(&req); err != nil {
			return errBadRequest(c, validationMessage(err))
		}

		fix := domain.Fix{
			MarkerID: id,
			Location: domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon},
			Source:   domain.FixSource(req.Source),
			Accuracy: req.Accuracy,
			Speed:    req.Speed,
		}
		if req.Time != nil {
			fix.Time = *req.Time
		}

		if err := deps.Fixes.Ingest(c.UserContext(), &fix); err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fix)
	}
}

// TapHandler moves a marker to a tapped point at once.
func TapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := markerParam(c)
		if err := validateMarkerID(id); err != nil {
			return errBadRequest(c, err.Error())
		}

		var req tapRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := validate.Struct(&req); err != nil {
			return errBadRequest(c, validationMessage(err))
		}

		fix := domain.Fix{
			MarkerID: id,
			Location: domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon},
			Source:   domain.SourceTap,
		}
		if err := deps.Fixes.Ingest(c.UserContext(), &fix); err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fix)
	}
}

// ListMarkersHandler returns the ids of the markers currently animated.
func ListMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids := deps.Animator.Markers()
		offset, limit := pageParams(c, 100, 500)
		total := len(ids)
		ids = paginate(ids, offset, limit)

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: ids, Pagination: pg})
	}
}

// GetMarkerHandler returns the current state of one marker.
func GetMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := markerParam(c)
		if err := validateMarkerID(id); err != nil {
			return errBadRequest(c, err.Error())
		}

		st, err := deps.States.Get(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(st)
	}
}

// TrackHandler returns the recorded fixes of a marker, newest first, or
// with ?format=polyline the track as an encoded polyline, oldest first.
func TrackHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := markerParam(c)
		if err := validateMarkerID(id); err != nil {
			return errBadRequest(c, err.Error())
		}

		format := c.Query("format", "json")
		if format != "json" && format != "polyline" {
			return errBadRequest(c, "format must be json or polyline")
		}

		fixes, err := deps.Fixes.Track(c.UserContext(), id, c.QueryInt("limit", 0))
		if err != nil {
			return errFromDomain(c, err)
		}

		track := Track{MarkerID: id, Count: len(fixes)}
		if format == "polyline" {
			track.Polyline = encodeTrack(fixes)
		} else {
			track.Fixes = fixes
		}
		return c.JSON(track)
	}
}

// encodeTrack encodes newest-first fixes as a polyline in travel order.
func encodeTrack(fixes []domain.Fix) string {
	coords := make([][]float64, len(fixes))
	for i, f := range fixes {
		coords[len(fixes)-1-i] = []float64{f.Location.Lat, f.Location.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

// HeadingHandler returns the initial bearing and distance between two points.
func HeadingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q headingQuery
		if err := c.QueryParser(&q); err != nil {
			return errBadRequest(c, "invalid query parameters")
		}
		if err := validate.Struct(&q); err != nil {
			return errBadRequest(c, validationMessage(err))
		}

		res, err := deps.Fixes.Heading(
			domain.GeoPoint{Lat: *q.FromLat, Lon: *q.FromLon},
			domain.GeoPoint{Lat: *q.ToLat, Lon: *q.ToLon},
		)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}
