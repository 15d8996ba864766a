package http

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/yuwankavi/Gas-Project/internal/core/domain"
	"github.com/yuwankavi/Gas-Project/internal/pkg/geospatial"
)

var errGraphQLInternal = errors.New("internal server error")

// gqlError keeps validation and lookup messages but hides internal failures.
func gqlError(err error) error {
	switch domain.TypeOf(err) {
	case domain.ErrorTypeValidation, domain.ErrorTypeNotFound, domain.ErrorTypeConflict:
		return errors.New(domain.MessageOf(err))
	}
	return errGraphQLInternal
}

func sellerToMap(s domain.Seller) map[string]interface{} {
	m := map[string]interface{}{
		"id":         s.ID,
		"name":       s.Name,
		"address":    s.Address,
		"created_at": s.CreatedAt.Format(time.RFC3339Nano),
	}
	if s.Location != nil {
		m["location"] = map[string]interface{}{
			"type":        "Point",
			"lng":         s.Location.Lon,
			"lat":         s.Location.Lat,
			"coordinates": []float64{s.Location.Lon, s.Location.Lat},
		}
	}
	return m
}

// buildSchema creates the GraphQL schema wired to the seller service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"type":        &graphql.Field{Type: graphql.String},
			"lng":         &graphql.Field{Type: graphql.Float},
			"lat":         &graphql.Field{Type: graphql.Float},
			"coordinates": &graphql.Field{Type: graphql.NewList(graphql.Float)},
		},
	})

	sellerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Seller",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"address":    &graphql.Field{Type: graphql.String},
			"location":   &graphql.Field{Type: locationType},
			"created_at": &graphql.Field{Type: graphql.String},
			"distance": &graphql.Field{
				Type:        graphql.Float,
				Description: "Distance from the query point in km, only set when withDistance is true",
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"sellers": &graphql.Field{
				Type:        graphql.NewList(sellerType),
				Description: "List all sellers in registration order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					all := deps.Sellers.List(p.Context)
					out := make([]map[string]interface{}, len(all))
					for i, s := range all {
						out[i] = sellerToMap(s)
					}
					return out, nil
				},
			},
			"seller": &graphql.Field{
				Type:        sellerType,
				Description: "Get a seller by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, err := deps.Sellers.GetByID(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, gqlError(err)
					}
					return sellerToMap(s), nil
				},
			},
			"sellersNearby": &graphql.Field{
				Type:        graphql.NewList(sellerType),
				Description: "Sellers within maxDistance meters of a point, nearest first",
				Args: graphql.FieldConfigArgument{
					"lng":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"maxDistance":  &graphql.ArgumentConfig{Type: graphql.Float},
					"withDistance": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var meters *float64
					if v, ok := p.Args["maxDistance"].(float64); ok {
						meters = &v
					}
					q, err := buildNearbyQuery(p.Args["lng"].(float64), p.Args["lat"].(float64), meters, false)
					if err != nil {
						return nil, gqlError(err)
					}
					hits, err := deps.Sellers.Nearby(p.Context, q.point, q.maxKm)
					if err != nil {
						return nil, gqlError(err)
					}

					withDistance, _ := p.Args["withDistance"].(bool)
					out := make([]map[string]interface{}, len(hits))
					for i, h := range hits {
						m := sellerToMap(h.Seller)
						if withDistance {
							m["distance"] = geospatial.RoundKm(h.DistanceKm)
						}
						out[i] = m
					}
					return out, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createSeller": &graphql.Field{
				Type:        sellerType,
				Description: "Register a new seller",
				Args: graphql.FieldConfigArgument{
					"name":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"address": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lng":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					loc := domain.GeoPoint{Lon: p.Args["lng"].(float64), Lat: p.Args["lat"].(float64)}
					s, err := deps.Sellers.Create(p.Context, domain.Seller{
						Name:     p.Args["name"].(string),
						Address:  p.Args["address"].(string),
						Location: &loc,
					})
					if err != nil {
						if domain.TypeOf(err) == domain.ErrorTypeInternal {
							LoggerFromCtx(p.Context).Error("graphql createSeller failed", "error", err)
						}
						return nil, gqlError(err)
					}
					return sellerToMap(s), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil || req.Query == "" {
			return errBadRequest(c, "request body must be a JSON object with a query")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
