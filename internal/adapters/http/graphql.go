package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/markermove/internal/core/domain"
	"github.com/samirrijal/markermove/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	// graphql-go only coerces builtin kinds, so named types are unwrapped
	// by hand.
	markerStateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MarkerState",
		Fields: graphql.Fields{
			"marker_id": &graphql.Field{Type: graphql.String},
			"mode": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(*domain.MarkerState).Mode), nil
				},
			},
			"position": &graphql.Field{Type: geoPointType},
			"rotation": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return float64(p.Source.(*domain.MarkerState).Rotation), nil
				},
			},
			"target": &graphql.Field{Type: geoPointType},
			"target_heading": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return float64(p.Source.(*domain.MarkerState).TargetHeading), nil
				},
			},
			"animating": &graphql.Field{Type: graphql.Boolean},
			"last_fix": &graphql.Field{
				Type: geoPointType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if lf := p.Source.(*domain.MarkerState).LastFix; lf != nil {
						return *lf, nil
					}
					return nil, nil
				},
			},
			"updated_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	fixType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Fix",
		Fields: graphql.Fields{
			"marker_id": &graphql.Field{Type: graphql.String},
			"location":  &graphql.Field{Type: geoPointType},
			"source": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if f := fixFrom(p.Source); f != nil {
						return string(f.Source), nil
					}
					return nil, nil
				},
			},
			"time":     &graphql.Field{Type: graphql.DateTime},
			"accuracy": &graphql.Field{Type: graphql.Float},
			"speed":    &graphql.Field{Type: graphql.Float},
		},
	})

	headingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Heading",
		Fields: graphql.Fields{
			"from": &graphql.Field{Type: geoPointType},
			"to":   &graphql.Field{Type: geoPointType},
			"heading": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return float64(p.Source.(*usecases.HeadingResult).Heading), nil
				},
			},
			"distance_m": &graphql.Field{Type: graphql.Float},
		},
	})

	pointArgs := func(prefix string) graphql.FieldConfigArgument {
		return graphql.FieldConfigArgument{
			prefix + "Lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
			prefix + "Lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		}
	}
	headingArgs := pointArgs("from")
	for k, v := range pointArgs("to") {
		headingArgs[k] = v
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"markers": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "IDs of the markers currently animated",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Animator.Markers(), nil
				},
			},
			"marker": &graphql.Field{
				Type:        markerStateType,
				Description: "Current state of a marker",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.States.Get(p.Context, p.Args["id"].(string))
				},
			},
			"track": &graphql.Field{
				Type:        graphql.NewList(fixType),
				Description: "Recorded fixes of a marker, newest first",
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Fixes.Track(p.Context, p.Args["id"].(string), p.Args["limit"].(int))
				},
			},
			"heading": &graphql.Field{
				Type:        headingType,
				Description: "Initial bearing and distance between two points",
				Args:        headingArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Fixes.Heading(
						domain.GeoPoint{Lat: p.Args["fromLat"].(float64), Lon: p.Args["fromLon"].(float64)},
						domain.GeoPoint{Lat: p.Args["toLat"].(float64), Lon: p.Args["toLon"].(float64)},
					)
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"tap": &graphql.Field{
				Type:        fixType,
				Description: "Move a marker to a tapped point",
				Args: graphql.FieldConfigArgument{
					"id":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					if err := validateMarkerID(id); err != nil {
						return nil, err
					}
					fix := &domain.Fix{
						MarkerID: id,
						Location: domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)},
						Source:   domain.SourceTap,
					}
					if err := deps.Fixes.Ingest(p.Context, fix); err != nil {
						return nil, err
					}
					return fix, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// fixFrom accepts both list elements and pointers as a Fix source.
func fixFrom(src interface{}) *domain.Fix {
	switch f := src.(type) {
	case *domain.Fix:
		return f
	case domain.Fix:
		return &f
	}
	return nil
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
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
