package http

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/yuwankavi/Gas-Project/internal/core/domain"
)

// defaultMaxDistanceMeters applies when a bounded query omits maxDistance.
const defaultMaxDistanceMeters = 5000.0

type createSellerRequest struct {
	Name     string           `json:"name"`
	Address  string           `json:"address"`
	Location *domain.GeoPoint `json:"location"`
}

// CreateSellerHandler registers a seller. Any id or created_at in the body is ignored.
func CreateSellerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createSellerRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			if domain.IsValidation(err) {
				return respondError(c, err)
			}
			return errBadRequest(c, "request body must be a JSON object")
		}

		seller, err := deps.Sellers.Create(c.UserContext(), domain.Seller{
			Name:     req.Name,
			Address:  req.Address,
			Location: req.Location,
		})
		if err != nil {
			return respondError(c, err)
		}

		c.Location("/api/sellers/" + seller.ID)
		return c.Status(fiber.StatusCreated).JSON(seller)
	}
}

// ListSellersHandler returns every seller in registration order.
func ListSellersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Sellers.List(c.UserContext()))
	}
}

// GetSellerHandler returns a single seller by ID.
func GetSellerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		seller, err := deps.Sellers.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(seller)
	}
}

// nearbyOptions distinguishes the nearby endpoint from its legacy aliases.
type nearbyOptions struct {
	unboundedWhenMissing bool // no maxDistance means no radius limit
	forceDistance        bool // always annotate results with distance
}

// NearbySellersHandler answers GET /api/sellers/nearby?lng=&lat=&maxDistance=
// with sellers ordered by distance. maxDistance is in meters (default 5000);
// withDistance=true adds each seller's distance in km.
func NearbySellersHandler(deps *Dependencies) fiber.Handler {
	return nearbyHandler(deps, nearbyOptions{})
}

// NearSellersHandler serves the legacy /near alias, which ranks every seller
// when maxDistance is omitted.
func NearSellersHandler(deps *Dependencies) fiber.Handler {
	return nearbyHandler(deps, nearbyOptions{unboundedWhenMissing: true})
}

// NearbyWithDistanceHandler serves the legacy /nearby-with-distance alias.
func NearbyWithDistanceHandler(deps *Dependencies) fiber.Handler {
	return nearbyHandler(deps, nearbyOptions{forceDistance: true})
}

func nearbyHandler(deps *Dependencies, opts nearbyOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := parseNearbyQuery(c.Query("lng"), c.Query("lat"), c.Query("maxDistance"), opts.unboundedWhenMissing)
		if err != nil {
			return respondError(c, err)
		}

		var hits []domain.NearbySeller
		if q.bounded {
			hits, err = deps.Sellers.Nearby(c.UserContext(), q.point, q.maxKm)
		} else {
			hits, err = deps.Sellers.NearbyUnbounded(c.UserContext(), q.point)
		}
		if err != nil {
			return respondError(c, err)
		}

		if opts.forceDistance || c.QueryBool("withDistance", false) {
			return c.JSON(domain.AnnotateAll(hits))
		}
		return c.JSON(domain.Sellers(hits))
	}
}

type nearbyQuery struct {
	point   domain.GeoPoint
	maxKm   float64
	bounded bool
}

// parseNearbyQuery validates raw query parameters. lng and lat are required;
// maxDistance is a non-negative number of meters.
func parseNearbyQuery(lng, lat, maxDistance string, unboundedWhenMissing bool) (nearbyQuery, error) {
	if lng == "" || lat == "" {
		return nearbyQuery{}, domain.NewValidationError("lng and lat are required")
	}
	lon, errLon := strconv.ParseFloat(lng, 64)
	la, errLat := strconv.ParseFloat(lat, 64)
	if errLon != nil || errLat != nil {
		return nearbyQuery{}, domain.NewValidationError("lng and lat must be numbers")
	}

	var meters *float64
	if maxDistance != "" {
		m, err := strconv.ParseFloat(maxDistance, 64)
		if err != nil {
			return nearbyQuery{}, domain.NewValidationError("maxDistance must be a non-negative number of meters")
		}
		meters = &m
	}
	return buildNearbyQuery(lon, la, meters, unboundedWhenMissing)
}

// buildNearbyQuery is shared by REST, GraphQL and the watch feed. A nil
// maxMeters means the parameter was omitted.
func buildNearbyQuery(lon, lat float64, maxMeters *float64, unboundedWhenMissing bool) (nearbyQuery, error) {
	p, err := domain.NewGeoPoint(lon, lat)
	if err != nil {
		return nearbyQuery{}, err
	}

	q := nearbyQuery{point: p, bounded: true}
	switch {
	case maxMeters == nil && unboundedWhenMissing:
		q.bounded = false
		q.maxKm = math.Inf(1)
	case maxMeters == nil:
		q.maxKm = defaultMaxDistanceMeters / 1000
	default:
		m := *maxMeters
		if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
			return nearbyQuery{}, domain.NewValidationError("maxDistance must be a non-negative number of meters")
		}
		q.maxKm = m / 1000
	}
	return q, nil
}
