// Package schema serves the read-only GraphQL API. The executable schema is
// written by hand over the resolvers and runs inside gqlgen's handler, which
// parses, validates and caches queries against schema.graphqls.
package schema

import (
	"bytes"
	"context"
	_ "embed"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/zatekoja/propertymarket/backend/internal/domain/entities"
	"github.com/zatekoja/propertymarket/backend/internal/graphql/resolvers"
	"github.com/zatekoja/propertymarket/backend/internal/graphql/scalars"
)

//go:embed schema.graphqls
var sdl string

var parsed = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphqls", Input: sdl, BuiltIn: false})

// ExecutableSchema resolves queries against the property marketplace graph
type ExecutableSchema struct {
	// Complexity is not implemented; no complexity limit extension is
	// installed on the server.
	graphql.ExecutableSchema

	resolver *resolvers.Resolver
}

// NewExecutableSchema creates the executable schema
func NewExecutableSchema(resolver *resolvers.Resolver) *ExecutableSchema {
	return &ExecutableSchema{resolver: resolver}
}

// Schema returns the parsed schema
func (e *ExecutableSchema) Schema() *ast.Schema {
	return parsed
}

// Exec runs the operation already parsed and validated by the handler
func (e *ExecutableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)
	done := false

	return func(ctx context.Context) *graphql.Response {
		if done {
			return nil
		}
		done = true

		if opCtx.Operation.Operation != ast.Query {
			return &graphql.Response{Errors: gqlerror.List{gqlerror.Errorf("only queries are supported")}}
		}

		x := &execution{op: opCtx, resolver: e.resolver}
		var buf bytes.Buffer
		x.query(ctx).MarshalGQL(&buf)
		return &graphql.Response{Data: buf.Bytes()}
	}
}

type execution struct {
	op       *graphql.OperationContext
	resolver *resolvers.Resolver
}

func (x *execution) fields(sel ast.SelectionSet, typeName string) []graphql.CollectedField {
	return graphql.CollectFields(x.op, sel, []string{typeName})
}

func appendPath(path ast.Path, elems ...ast.PathElement) ast.Path {
	out := make(ast.Path, 0, len(path)+len(elems))
	out = append(out, path...)
	return append(out, elems...)
}

// fail records err against path and yields null for the field.
func fail(ctx context.Context, path ast.Path, err error) graphql.Marshaler {
	graphql.AddError(ctx, gqlerror.WrapPath(path, err))
	return graphql.Null
}

func (x *execution) query(ctx context.Context) graphql.Marshaler {
	fields := x.fields(x.op.Operation.SelectionSet, "Query")
	out := graphql.NewFieldSet(fields)
	for i, f := range fields {
		out.Values[i] = x.queryField(ctx, f, ast.Path{ast.PathName(f.Alias)})
	}
	return out
}

func (x *execution) queryField(ctx context.Context, f graphql.CollectedField, path ast.Path) graphql.Marshaler {
	args := f.ArgumentMap(x.op.Variables)

	switch f.Name {
	case "__typename":
		return graphql.MarshalString("Query")

	case "listings":
		filter, err := filterArg(args["filter"])
		if err != nil {
			return fail(ctx, path, err)
		}
		paging, err := pagingArgs(args)
		if err != nil {
			return fail(ctx, path, err)
		}
		page, err := x.resolver.Listings(ctx, filter, paging)
		if err != nil {
			return fail(ctx, path, err)
		}
		return x.listingPage(ctx, f.Selections, path, page)

	case "searchListings":
		q, err := requiredString(args, "q")
		if err != nil {
			return fail(ctx, path, err)
		}
		paging, err := pagingArgs(args)
		if err != nil {
			return fail(ctx, path, err)
		}
		page, err := x.resolver.SearchListings(ctx, q, paging)
		if err != nil {
			return fail(ctx, path, err)
		}
		return x.listingPage(ctx, f.Selections, path, page)

	case "listing":
		id, err := requiredString(args, "id")
		if err != nil {
			return fail(ctx, path, err)
		}
		l, err := x.resolver.Listing(ctx, id)
		if err != nil {
			return fail(ctx, path, err)
		}
		return x.listing(ctx, f.Selections, path, l)

	case "agentListings":
		agentID, err := requiredString(args, "agentId")
		if err != nil {
			return fail(ctx, path, err)
		}
		sortKey, err := toString("sortKey", args["sortKey"])
		if err != nil {
			return fail(ctx, path, err)
		}
		paging, err := pagingArgs(args)
		if err != nil {
			return fail(ctx, path, err)
		}
		page, err := x.resolver.AgentListings(ctx, agentID, sortKey, paging)
		if err != nil {
			return fail(ctx, path, err)
		}
		return x.listingPage(ctx, f.Selections, path, page)

	case "ratings":
		subjectType, err := requiredString(args, "subjectType")
		if err != nil {
			return fail(ctx, path, err)
		}
		subjectID, err := requiredString(args, "subjectId")
		if err != nil {
			return fail(ctx, path, err)
		}
		paging, err := pagingArgs(args)
		if err != nil {
			return fail(ctx, path, err)
		}
		page, err := x.resolver.Ratings(ctx, subjectType, subjectID, paging)
		if err != nil {
			return fail(ctx, path, err)
		}
		return x.ratingPage(f.Selections, page)

	case "myRating":
		subjectType, err := requiredString(args, "subjectType")
		if err != nil {
			return fail(ctx, path, err)
		}
		subjectID, err := requiredString(args, "subjectId")
		if err != nil {
			return fail(ctx, path, err)
		}
		rating, err := x.resolver.MyRating(ctx, subjectType, subjectID)
		if err != nil {
			return fail(ctx, path, err)
		}
		return x.rating(f.Selections, rating)

	default:
		return fail(ctx, path, gqlerror.Errorf("field %s is not served", f.Name))
	}
}

func (x *execution) listingPage(ctx context.Context, sel ast.SelectionSet, path ast.Path, page *entities.ListingPage) graphql.Marshaler {
	if page == nil {
		return graphql.Null
	}
	fields := x.fields(sel, "ListingPage")
	out := graphql.NewFieldSet(fields)
	for i, f := range fields {
		switch f.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("ListingPage")
		case "items":
			items := make(graphql.Array, len(page.Items))
			for j, l := range page.Items {
				items[j] = x.listing(ctx, f.Selections, appendPath(path, ast.PathName(f.Alias), ast.PathIndex(j)), l)
			}
			out.Values[i] = items
		case "total":
			out.Values[i] = graphql.MarshalInt(page.Total)
		case "page":
			out.Values[i] = graphql.MarshalInt(page.Page)
		case "totalPages":
			out.Values[i] = graphql.MarshalInt(page.TotalPages)
		default:
			out.Values[i] = graphql.Null
		}
	}
	return out
}

func (x *execution) listing(ctx context.Context, sel ast.SelectionSet, path ast.Path, l *entities.ListingWithAgent) graphql.Marshaler {
	if l == nil || l.Listing == nil {
		return graphql.Null
	}
	fields := x.fields(sel, "Listing")
	out := graphql.NewFieldSet(fields)
	for i, f := range fields {
		var v graphql.Marshaler
		switch f.Name {
		case "__typename":
			v = graphql.MarshalString("Listing")
		case "id":
			v = graphql.MarshalID(l.ID)
		case "title":
			v = graphql.MarshalString(l.Title)
		case "description":
			v = graphql.MarshalString(l.Description)
		case "price":
			v = graphql.MarshalFloat(l.Price)
		case "category":
			v = graphql.MarshalString(string(l.Category))
		case "listingType":
			v = graphql.MarshalString(string(l.ListingType))
		case "area":
			v = graphql.MarshalFloat(l.Area)
		case "bedrooms":
			v = scalars.MarshalOptionalInt(l.Bedrooms)
		case "bathrooms":
			v = scalars.MarshalOptionalInt(l.Bathrooms)
		case "location":
			v = graphql.MarshalString(l.Location)
		case "address":
			v = graphql.MarshalString(l.Address)
		case "city":
			v = graphql.MarshalString(l.City)
		case "state":
			v = graphql.MarshalString(l.State)
		case "zipCode":
			v = graphql.MarshalString(l.ZipCode)
		case "images":
			v = scalars.MarshalStrings(l.Images)
		case "features":
			v = scalars.MarshalStrings(l.Features)
		case "isFeatured":
			v = graphql.MarshalBoolean(l.IsFeatured)
		case "isActive":
			v = graphql.MarshalBoolean(l.IsActive)
		case "approvalStatus":
			v = graphql.MarshalString(string(l.ApprovalStatus))
		case "views":
			v = graphql.MarshalInt(l.Views)
		case "averageRating":
			v = graphql.MarshalFloat(l.AverageRating)
		case "totalRatings":
			v = graphql.MarshalInt(l.TotalRatings)
		case "createdAt":
			v = scalars.MarshalDateTime(l.CreatedAt)
		case "updatedAt":
			v = scalars.MarshalDateTime(l.UpdatedAt)
		case "agent":
			agent, err := x.resolver.ListingAgent(ctx, l)
			if err != nil {
				v = fail(ctx, appendPath(path, ast.PathName(f.Alias)), err)
			} else {
				v = x.agent(f.Selections, agent)
			}
		default:
			v = graphql.Null
		}
		out.Values[i] = v
	}
	return out
}

func (x *execution) agent(sel ast.SelectionSet, a *entities.AgentSummary) graphql.Marshaler {
	if a == nil {
		return graphql.Null
	}
	fields := x.fields(sel, "Agent")
	out := graphql.NewFieldSet(fields)
	for i, f := range fields {
		switch f.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("Agent")
		case "id":
			out.Values[i] = graphql.MarshalID(a.ID)
		case "name":
			out.Values[i] = graphql.MarshalString(a.Name)
		case "email":
			out.Values[i] = graphql.MarshalString(a.Email)
		case "phone":
			out.Values[i] = graphql.MarshalString(a.Phone)
		case "averageRating":
			out.Values[i] = graphql.MarshalFloat(a.AverageRating)
		case "totalRatings":
			out.Values[i] = graphql.MarshalInt(a.TotalRatings)
		default:
			out.Values[i] = graphql.Null
		}
	}
	return out
}

func (x *execution) ratingPage(sel ast.SelectionSet, page *entities.RatingPage) graphql.Marshaler {
	if page == nil {
		return graphql.Null
	}
	fields := x.fields(sel, "RatingPage")
	out := graphql.NewFieldSet(fields)
	for i, f := range fields {
		switch f.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("RatingPage")
		case "items":
			items := make(graphql.Array, len(page.Items))
			for j, r := range page.Items {
				items[j] = x.rating(f.Selections, r)
			}
			out.Values[i] = items
		case "total":
			out.Values[i] = graphql.MarshalInt(page.Total)
		case "page":
			out.Values[i] = graphql.MarshalInt(page.Page)
		case "totalPages":
			out.Values[i] = graphql.MarshalInt(page.TotalPages)
		default:
			out.Values[i] = graphql.Null
		}
	}
	return out
}

func (x *execution) rating(sel ast.SelectionSet, r *entities.Rating) graphql.Marshaler {
	if r == nil {
		return graphql.Null
	}
	fields := x.fields(sel, "Rating")
	out := graphql.NewFieldSet(fields)
	for i, f := range fields {
		switch f.Name {
		case "__typename":
			out.Values[i] = graphql.MarshalString("Rating")
		case "id":
			out.Values[i] = graphql.MarshalID(r.ID)
		case "subjectType":
			out.Values[i] = graphql.MarshalString(string(r.SubjectType))
		case "subjectId":
			out.Values[i] = graphql.MarshalID(r.SubjectID)
		case "raterId":
			out.Values[i] = graphql.MarshalID(r.RaterID)
		case "raterName":
			out.Values[i] = graphql.MarshalString(r.RaterName)
		case "score":
			out.Values[i] = graphql.MarshalInt(r.Score)
		case "review":
			out.Values[i] = graphql.MarshalString(r.Review)
		case "createdAt":
			out.Values[i] = scalars.MarshalDateTime(r.CreatedAt)
		case "updatedAt":
			out.Values[i] = scalars.MarshalDateTime(r.UpdatedAt)
		default:
			out.Values[i] = graphql.Null
		}
	}
	return out
}
