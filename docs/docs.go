// Package docs holds the OpenAPI description of the gateway served at
// /swagger. Regenerate with `swag init -g cmd/server/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/auth/backup-token": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Fetch a backup of the current credential",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.backupTokenResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/auth/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/auth/check-email": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Check whether an email is registered",
                "parameters": [
                    {"description": "Email to check", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.checkEmailRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/auth/restore": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Restore a backup credential",
                "parameters": [
                    {"description": "Backup credential", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.restoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/api/auth/clear": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Clear auth cookies",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/api/auth/force-logout": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Force logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            },
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Force logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}}
                }
            }
        },
        "/api/auth/refresh": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Refresh credential (disabled)",
                "responses": {
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/auth/impersonate/current": {
            "get": {
                "produces": ["application/json"],
                "tags": ["impersonation"],
                "summary": "Current impersonation session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.currentImpersonationResponse"}}
                }
            }
        },
        "/api/auth/impersonate/end": {
            "post": {
                "produces": ["application/json"],
                "tags": ["impersonation"],
                "summary": "End impersonation",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.endImpersonationResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.backendErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/api/auth/impersonate/audit": {
            "get": {
                "produces": ["application/json"],
                "tags": ["impersonation"],
                "summary": "Impersonation audit trail of the current admin",
                "parameters": [
                    {"type": "integer", "description": "Max events", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.auditListResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "role": {"type": "string"},
                "avatarUrl": {"type": "string"}
            }
        },
        "domain.ImpersonationSession": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "adminId": {"type": "string"},
                "targetUserId": {"type": "string"},
                "admin": {"$ref": "#/definitions/domain.User"},
                "targetUser": {"$ref": "#/definitions/domain.User"},
                "isActive": {"type": "boolean"},
                "startedAt": {"type": "string"},
                "endedAt": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "domain.GraphQLError": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "path": {"type": "array", "items": {}},
                "extensions": {"type": "object"}
            }
        },
        "domain.AuditEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "kind": {"type": "string"},
                "subject": {"type": "string"},
                "admin_id": {"type": "string"},
                "target_user_id": {"type": "string"},
                "outcome": {"type": "string"},
                "detail": {"type": "string"},
                "ip": {"type": "string"},
                "user_agent": {"type": "string"},
                "credential_fingerprint": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "handler.backupTokenResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "timestamp": {"type": "integer"},
                "purpose": {"type": "string"}
            }
        },
        "handler.userResponse": {
            "type": "object",
            "properties": {"user": {"$ref": "#/definitions/domain.User"}}
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "user": {"$ref": "#/definitions/domain.User"}
            }
        },
        "handler.checkEmailRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {"email": {"type": "string"}}
        },
        "handler.restoreRequest": {
            "type": "object",
            "required": ["token"],
            "properties": {"token": {"type": "string"}}
        },
        "handler.messageResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "handler.currentImpersonationResponse": {
            "type": "object",
            "properties": {"currentImpersonation": {"$ref": "#/definitions/domain.ImpersonationSession"}}
        },
        "handler.endImpersonationResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "user": {"$ref": "#/definitions/domain.User"},
                "message": {"type": "string"}
            }
        },
        "handler.backendErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "errors": {"type": "array", "items": {"$ref": "#/definitions/domain.GraphQLError"}}
            }
        },
        "handler.auditListResponse": {
            "type": "object",
            "properties": {
                "events": {"type": "array", "items": {"$ref": "#/definitions/domain.AuditEvent"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Auth Gateway API",
	Description:      "Credential and impersonation session endpoints of the events dashboard.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
