package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
	"github.com/samirrijal/mapbuffer/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	styleType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Style",
		Fields: graphql.Fields{
			"stroke": &graphql.Field{Type: graphql.String},
			"fill":   &graphql.Field{Type: graphql.String},
			"width":  &graphql.Field{Type: graphql.Float},
		},
	})

	featureType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Feature",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"layer_id":   &graphql.Field{Type: graphql.String},
			"kind":       &graphql.Field{Type: graphql.String},
			"geometry":   &graphql.Field{Type: graphql.String, Description: "GeoJSON geometry"},
			"created_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	layerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Layer",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"z_index":    &graphql.Field{Type: graphql.Int},
			"visible":    &graphql.Field{Type: graphql.Boolean},
			"style":      &graphql.Field{Type: styleType},
			"created_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	modeType := graphql.NewEnum(graphql.EnumConfig{
		Name: "BufferMode",
		Values: graphql.EnumValueConfigMap{
			"AROUND": &graphql.EnumValueConfig{Value: string(domain.ModeAround)},
			"FLAT":   &graphql.EnumValueConfig{Value: string(domain.ModeFlat)},
			"LEFT":   &graphql.EnumValueConfig{Value: string(domain.ModeLeft)},
			"RIGHT":  &graphql.EnumValueConfig{Value: string(domain.ModeRight)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"layers": &graphql.Field{
				Type:        graphql.NewList(layerType),
				Description: "List layers whose id contains q",
				Args: graphql.FieldConfigArgument{
					"q": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q, _ := p.Args["q"].(string)
					return deps.Layers.ListLayers(p.Context, q)
				},
			},
			"layer": &graphql.Field{
				Type:        layerType,
				Description: "Get a layer by id",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Layers.GetLayer(p.Context, p.Args["id"].(string))
				},
			},
			"features": &graphql.Field{
				Type:        graphql.NewList(featureType),
				Description: "Features of a layer in insertion order",
				Args: graphql.FieldConfigArgument{
					"layer_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					features, err := deps.Layers.Features(p.Context, p.Args["layer_id"].(string))
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(features))
					for i := range features {
						m, err := featureMap(&features[i])
						if err != nil {
							return nil, err
						}
						out = append(out, m)
					}
					return out, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addLayer": &graphql.Field{
				Type:        layerType,
				Description: "Create a layer",
				Args: graphql.FieldConfigArgument{
					"id":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"z_index": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Layers.AddLayer(p.Context, domain.Layer{
						ID:     p.Args["id"].(string),
						ZIndex: p.Args["z_index"].(int),
					})
				},
			},
			"clearLayer": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Remove every feature from a layer",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if err := deps.Layers.ClearLayer(p.Context, p.Args["id"].(string)); err != nil {
						return false, err
					}
					return true, nil
				},
			},
			"bufferLine": &graphql.Field{
				Type:        featureType,
				Description: "Buffer a line and add the result to a layer",
				Args: graphql.FieldConfigArgument{
					"layer_id":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"mode":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(modeType)},
					"distance_km":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"coordinates":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewList(graphql.Float)))},
					"clear":        &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
					"include_line": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					line, err := argLine(p.Args["coordinates"])
					if err != nil {
						return nil, err
					}
					mode, err := domain.ParseBufferMode(p.Args["mode"].(string))
					if err != nil {
						return nil, err
					}
					f, err := deps.Buffers.BufferLine(p.Context, usecases.BufferLineRequest{
						LayerID:       p.Args["layer_id"].(string),
						Line:          domain.Coordinates(line),
						Mode:          mode,
						DistanceKm:    p.Args["distance_km"].(float64),
						ClearPrevious: p.Args["clear"].(bool),
						IncludeLine:   p.Args["include_line"].(bool),
					})
					if err != nil {
						return nil, err
					}
					return featureMap(f)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func featureMap(f *domain.Feature) (map[string]interface{}, error) {
	geom, err := geojson.NewGeometry(f.Geometry).MarshalJSON()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"id":         f.ID,
		"layer_id":   f.LayerID,
		"kind":       string(f.Kind),
		"geometry":   string(geom),
		"created_at": f.CreatedAt,
	}, nil
}

// argLine converts a [[Float]] argument into a line.
func argLine(v interface{}) (orb.LineString, error) {
	rows, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: coordinates must be a list of [x, y] pairs", domain.ErrInvalidInputKind)
	}
	line := make(orb.LineString, 0, len(rows))
	for i, row := range rows {
		pair, ok := row.([]interface{})
		if !ok || len(pair) < 2 {
			return nil, fmt.Errorf("%w: coordinate %d is not an [x, y] pair", domain.ErrInvalidInputKind, i)
		}
		x, okX := pair[0].(float64)
		y, okY := pair[1].(float64)
		if !okX || !okY {
			return nil, fmt.Errorf("%w: coordinate %d is not numeric", domain.ErrInvalidInputKind, i)
		}
		line = append(line, orb.Point{x, y})
	}
	return line, nil
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// programming error in the schema definition
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
