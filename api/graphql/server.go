package graphql

import (
	"encoding/json"
	"log/slog"
	"net/http"

	gql "github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/siherrmann/chronosatlas/api"
	"github.com/siherrmann/chronosatlas/helper"
)

// Request is a GraphQL request body
type Request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// Server executes GraphQL requests against a Store
type Server struct {
	store  api.Store
	schema gql.Schema
	log    *slog.Logger
}

func NewServer(store api.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{store: store, log: logger}
	schema, err := s.buildSchema()
	if err != nil {
		return nil, helper.NewError("build graphql schema", err)
	}
	s.schema = schema

	return s, nil
}

// Error carries the API error code and field into the response extensions
type Error struct {
	problem *api.Problem
}

func (e *Error) Error() string {
	return e.problem.Message
}

func (e *Error) Extensions() map[string]interface{} {
	extensions := map[string]interface{}{"code": e.problem.Code}
	if e.problem.Field != "" {
		extensions["field"] = e.problem.Field
	}
	return extensions
}

func (s *Server) wrap(err error) error {
	problem := api.Classify(err)
	if problem.Code == api.CodeInternal {
		s.log.Error("GraphQL resolver failed", slog.String("error", err.Error()))
	}
	return &Error{problem: problem}
}

// Execute runs one request
func (s *Server) Execute(r *http.Request, req Request) *gql.Result {
	return gql.Do(gql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        r.Context(),
	})
}

// isMutation reports whether the operation that would run for operationName
// is a mutation. Without a name any mutation in the document counts.
// Documents that do not parse are left to Execute to report.
func isMutation(query string, operationName string) bool {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return false
	}

	for _, definition := range doc.Definitions {
		operation, ok := definition.(*ast.OperationDefinition)
		if !ok || operation.Operation != ast.OperationTypeMutation {
			continue
		}
		if operationName == "" || (operation.Name != nil && operation.Name.Value == operationName) {
			return true
		}
	}
	return false
}

// ServeHTTP accepts POST with a JSON body or GET with query parameters.
// Mutations are only accepted over POST.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req Request

	switch r.Method {
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"errors": []map[string]interface{}{{
					"message":    "invalid request body: " + err.Error(),
					"extensions": map[string]interface{}{"code": api.CodeValidation},
				}},
			})
			return
		}
	case http.MethodGet:
		req.Query = r.URL.Query().Get("query")
		req.OperationName = r.URL.Query().Get("operationName")
		if variables := r.URL.Query().Get("variables"); variables != "" {
			if err := json.Unmarshal([]byte(variables), &req.Variables); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]interface{}{
					"errors": []map[string]interface{}{{
						"message":    "invalid variables: " + err.Error(),
						"extensions": map[string]interface{}{"code": api.CodeValidation},
					}},
				})
				return
			}
		}
		if isMutation(req.Query, req.OperationName) {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{
				"errors": []map[string]interface{}{{
					"message":    "mutations require POST",
					"extensions": map[string]interface{}{"code": api.CodeValidation},
				}},
			})
			return
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, s.Execute(r, req))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
