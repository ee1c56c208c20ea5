package graph

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/emilythestrangee/hackernews-clone/backend/internal/models"
)

// NewSchema declares every (type, field) of the API together with the
// function that resolves it. Nothing is resolved by reflection.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	var (
		linkType    *graphql.Object
		userType    *graphql.Object
		voteType    *graphql.Object
		commentType *graphql.Object
	)

	sortEnum := graphql.NewEnum(graphql.EnumConfig{
		Name: "Sort",
		Values: graphql.EnumValueConfigMap{
			"asc":  &graphql.EnumValueConfig{Value: string(models.SortAsc)},
			"desc": &graphql.EnumValueConfig{Value: string(models.SortDesc)},
		},
	})

	linkOrderByInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "LinkOrderByInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"description": &graphql.InputObjectFieldConfig{Type: sortEnum},
			"url":         &graphql.InputObjectFieldConfig{Type: sortEnum},
			"createdAt":   &graphql.InputObjectFieldConfig{Type: sortEnum},
		},
	})

	userType = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id": &graphql.Field{
					Type: graphql.NewNonNull(graphql.ID),
					Resolve: onUser(func(_ graphql.ResolveParams, u *models.User) (interface{}, error) {
						return u.ID, nil
					}),
				},
				"name": &graphql.Field{
					Type: graphql.NewNonNull(graphql.String),
					Resolve: onUser(func(_ graphql.ResolveParams, u *models.User) (interface{}, error) {
						return u.Name, nil
					}),
				},
				"email": &graphql.Field{
					Type: graphql.NewNonNull(graphql.String),
					Resolve: onUser(func(_ graphql.ResolveParams, u *models.User) (interface{}, error) {
						return u.Email, nil
					}),
				},
				"links": &graphql.Field{
					Type: nonNullList(linkType),
					Resolve: onUser(func(p graphql.ResolveParams, u *models.User) (interface{}, error) {
						return r.UserLinks(p.Context, u)
					}),
				},
			}
		}),
	})

	linkType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Link",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id": &graphql.Field{
					Type: graphql.NewNonNull(graphql.ID),
					Resolve: onLink(func(_ graphql.ResolveParams, l *models.Link) (interface{}, error) {
						return l.ID, nil
					}),
				},
				"description": &graphql.Field{
					Type: graphql.NewNonNull(graphql.String),
					Resolve: onLink(func(_ graphql.ResolveParams, l *models.Link) (interface{}, error) {
						return l.Description, nil
					}),
				},
				"url": &graphql.Field{
					Type: graphql.NewNonNull(graphql.String),
					Resolve: onLink(func(_ graphql.ResolveParams, l *models.Link) (interface{}, error) {
						return l.URL, nil
					}),
				},
				"createdAt": &graphql.Field{
					Type: graphql.NewNonNull(graphql.DateTime),
					Resolve: onLink(func(_ graphql.ResolveParams, l *models.Link) (interface{}, error) {
						return l.CreatedAt, nil
					}),
				},
				"comments": &graphql.Field{
					Type: nonNullList(commentType),
					Resolve: onLink(func(p graphql.ResolveParams, l *models.Link) (interface{}, error) {
						return r.LinkComments(p.Context, l)
					}),
				},
				"postedBy": &graphql.Field{
					Type: userType,
					Resolve: onLink(func(p graphql.ResolveParams, l *models.Link) (interface{}, error) {
						return nullable(r.LinkPostedBy(p.Context, l))
					}),
				},
				"votes": &graphql.Field{
					Type: nonNullList(voteType),
					Resolve: onLink(func(p graphql.ResolveParams, l *models.Link) (interface{}, error) {
						return r.LinkVotes(p.Context, l)
					}),
				},
			}
		}),
	})

	voteType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Vote",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id": &graphql.Field{
					Type: graphql.NewNonNull(graphql.ID),
					Resolve: onVote(func(_ graphql.ResolveParams, v *models.Vote) (interface{}, error) {
						return v.ID, nil
					}),
				},
				"link": &graphql.Field{
					Type: graphql.NewNonNull(linkType),
					Resolve: onVote(func(p graphql.ResolveParams, v *models.Vote) (interface{}, error) {
						return nullable(r.VoteLink(p.Context, v))
					}),
				},
				"user": &graphql.Field{
					Type: graphql.NewNonNull(userType),
					Resolve: onVote(func(p graphql.ResolveParams, v *models.Vote) (interface{}, error) {
						return nullable(r.VoteUser(p.Context, v))
					}),
				},
			}
		}),
	})

	commentType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Comment",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id": &graphql.Field{
					Type: graphql.NewNonNull(graphql.ID),
					Resolve: onComment(func(_ graphql.ResolveParams, c *models.Comment) (interface{}, error) {
						return c.ID, nil
					}),
				},
				"body": &graphql.Field{
					Type: graphql.NewNonNull(graphql.String),
					Resolve: onComment(func(_ graphql.ResolveParams, c *models.Comment) (interface{}, error) {
						return c.Body, nil
					}),
				},
				"createdAt": &graphql.Field{
					Type: graphql.NewNonNull(graphql.DateTime),
					Resolve: onComment(func(_ graphql.ResolveParams, c *models.Comment) (interface{}, error) {
						return c.CreatedAt, nil
					}),
				},
				"link": &graphql.Field{
					Type: linkType,
					Resolve: onComment(func(p graphql.ResolveParams, c *models.Comment) (interface{}, error) {
						return nullable(r.CommentLink(p.Context, c))
					}),
				},
			}
		}),
	})

	authPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"token": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if ap, ok := p.Source.(*models.AuthPayload); ok {
						return ap.Token, nil
					}
					return nil, nil
				},
			},
			"user": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if ap, ok := p.Source.(*models.AuthPayload); ok && ap.User != nil {
						return ap.User, nil
					}
					return nil, nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"hello": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return r.Hello(), nil
				},
			},
			"info": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return r.Info(), nil
				},
			},
			"me": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Resolve: resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.Me(p.Context))
				}),
			},
			"feed": &graphql.Field{
				Type: nonNullList(linkType),
				Args: graphql.FieldConfigArgument{
					"filterNeedle": &graphql.ArgumentConfig{Type: graphql.String},
					"skip":         &graphql.ArgumentConfig{Type: graphql.Int},
					"take":         &graphql.ArgumentConfig{Type: graphql.Int},
					"orderBy":      &graphql.ArgumentConfig{Type: linkOrderByInput},
				},
				Resolve: resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
					return r.Feed(p.Context, FeedArgs{
						FilterNeedle: optString(p.Args, "filterNeedle"),
						Skip:         optInt(p.Args, "skip"),
						Take:         optInt(p.Args, "take"),
						OrderBy:      linkOrderBy(p.Args["orderBy"]),
					})
				}),
			},
			"comment": &graphql.Field{
				Type: commentType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.Comment(p.Context, str(p.Args, "id")))
				}),
			},
			"link": &graphql.Field{
				Type: linkType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.Link(p.Context, optString(p.Args, "id")))
				}),
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"postLink": &graphql.Field{
				Type: graphql.NewNonNull(linkType),
				Args: graphql.FieldConfigArgument{
					"url":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"description": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.PostLink(p.Context, models.CreateLinkRequest{
						URL:         str(p.Args, "url"),
						Description: str(p.Args, "description"),
					}))
				}),
			},
			"postCommentOnLink": &graphql.Field{
				Type: graphql.NewNonNull(commentType),
				Args: graphql.FieldConfigArgument{
					"linkId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"body":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.PostCommentOnLink(p.Context, str(p.Args, "linkId"), str(p.Args, "body")))
				}),
			},
			"signup": &graphql.Field{
				Type: authPayloadType,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"name":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.Signup(p.Context, models.SignupRequest{
						Email:    str(p.Args, "email"),
						Password: str(p.Args, "password"),
						Name:     str(p.Args, "name"),
					}))
				}),
			},
			"login": &graphql.Field{
				Type: authPayloadType,
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.Login(p.Context, models.LoginRequest{
						Email:    str(p.Args, "email"),
						Password: str(p.Args, "password"),
					}))
				}),
			},
			"vote": &graphql.Field{
				Type: voteType,
				Args: graphql.FieldConfigArgument{
					"linkId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
					return nullable(r.Vote(p.Context, str(p.Args, "linkId")))
				}),
			},
		},
	})

	subscriptionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Subscription",
		Fields: graphql.Fields{
			"newLink": &graphql.Field{
				Type: graphql.NewNonNull(linkType),
				Subscribe: resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
					ch, err := r.NewLink(p.Context)
					if err != nil {
						return nil, err
					}
					return stream(p.Context, ch), nil
				}),
				Resolve: eventSource,
			},
			"newVote": &graphql.Field{
				Type: graphql.NewNonNull(voteType),
				Subscribe: resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
					ch, err := r.NewVote(p.Context)
					if err != nil {
						return nil, err
					}
					return stream(p.Context, ch), nil
				}),
				Resolve: eventSource,
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:        queryType,
		Mutation:     mutationType,
		Subscription: subscriptionType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("build schema: %w", err)
	}
	return schema, nil
}

// eventSource resolves a subscription field to the published event itself.
func eventSource(p graphql.ResolveParams) (interface{}, error) {
	return p.Source, nil
}

func nonNullList(t graphql.Type) graphql.Output {
	return graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(t)))
}

// nullable turns a typed nil pointer into an untyped nil so the engine
// renders null.
func nullable[T any](v *T, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v, nil
}

func onLink(fn func(graphql.ResolveParams, *models.Link) (interface{}, error)) graphql.FieldResolveFn {
	return resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
		l, ok := p.Source.(*models.Link)
		if !ok || l == nil {
			return nil, nil
		}
		return fn(p, l)
	})
}

func onUser(fn func(graphql.ResolveParams, *models.User) (interface{}, error)) graphql.FieldResolveFn {
	return resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
		u, ok := p.Source.(*models.User)
		if !ok || u == nil {
			return nil, nil
		}
		return fn(p, u)
	})
}

func onVote(fn func(graphql.ResolveParams, *models.Vote) (interface{}, error)) graphql.FieldResolveFn {
	return resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
		v, ok := p.Source.(*models.Vote)
		if !ok || v == nil {
			return nil, nil
		}
		return fn(p, v)
	})
}

func onComment(fn func(graphql.ResolveParams, *models.Comment) (interface{}, error)) graphql.FieldResolveFn {
	return resolveWith(func(p graphql.ResolveParams) (interface{}, error) {
		c, ok := p.Source.(*models.Comment)
		if !ok || c == nil {
			return nil, nil
		}
		return fn(p, c)
	})
}

// str reads a required argument. ID arguments arrive as strings.
func str(args map[string]interface{}, name string) string {
	switch v := args[name].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func optString(args map[string]interface{}, name string) *string {
	if v, ok := args[name]; !ok || v == nil {
		return nil
	}
	s := str(args, name)
	return &s
}

func optInt(args map[string]interface{}, name string) *int {
	n, ok := args[name].(int)
	if !ok {
		return nil
	}
	return &n
}

func linkOrderBy(v interface{}) *models.LinkOrderBy {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	sortOf := func(key string) models.SortOrder {
		s, _ := m[key].(string)
		return models.SortOrder(s)
	}
	return &models.LinkOrderBy{
		Description: sortOf("description"),
		URL:         sortOf("url"),
		CreatedAt:   sortOf("createdAt"),
	}
}
