// Package docs holds the swagger specification served at /swagger/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "API info",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthStatus"}}
                }
            }
        },
        "/api/pdf/upload": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["pdf"],
                "summary": "Upload a PDF",
                "description": "Upload a PDF document; it is extracted, chunked, embedded and indexed before the response returns",
                "parameters": [
                    {"type": "file", "name": "file", "in": "formData", "required": true, "description": "PDF file"},
                    {"type": "string", "name": "sessionId", "in": "query", "description": "Session to associate the upload with"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/pdf": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pdf"],
                "summary": "List documents",
                "parameters": [
                    {"type": "string", "name": "sessionId", "in": "query", "description": "Only documents uploaded under this session"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}}
                }
            }
        },
        "/api/pdf/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pdf"],
                "summary": "Get document metadata",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true, "description": "Document ID"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["pdf"],
                "summary": "Delete a document",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true, "description": "Document ID"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/pdf/{id}/file": {
            "get": {
                "produces": ["application/pdf"],
                "tags": ["pdf"],
                "summary": "Download original PDF",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true, "description": "Document ID"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/chat/session": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Create a chat session",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/chat/session/{sessionId}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Delete a chat session",
                "parameters": [
                    {"type": "string", "name": "sessionId", "in": "path", "required": true, "description": "Session ID"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}}
                }
            }
        },
        "/api/chat/message": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Send a chat message",
                "description": "Ask a question about the session's document; the answer cites pages as [Page N]",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.SendMessageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/chat/history/{sessionId}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Get chat history",
                "parameters": [
                    {"type": "string", "name": "sessionId", "in": "path", "required": true, "description": "Session ID"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "Clear chat history",
                "parameters": [
                    {"type": "string", "name": "sessionId", "in": "path", "required": true, "description": "Session ID"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/chat/sessions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["chat"],
                "summary": "List sessions for a document",
                "parameters": [
                    {"type": "string", "name": "documentId", "in": "query", "required": true, "description": "Document ID"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/vector/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["vector"],
                "summary": "Vector index stats",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/vector/clear": {
            "post": {
                "produces": ["application/json"],
                "tags": ["vector"],
                "summary": "Clear the vector index",
                "description": "Removes all indexed chunks across all documents",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "handlers.SuccessResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "message": {"type": "string"}
            }
        },
        "handlers.HealthStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "vector_backend": {"type": "string"},
                "vector_status": {"type": "string"}
            }
        },
        "models.CreateSessionRequest": {
            "type": "object",
            "properties": {
                "document_id": {"type": "string"}
            }
        },
        "models.SendMessageRequest": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "document_id": {"type": "string"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "PDF Chat API",
	Description:      "Upload PDF documents and chat with them using retrieval-augmented generation",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
