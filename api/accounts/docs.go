// Package accounts holds the Swagger document served at /swagger/.
// Regenerate with: swag init -g internal/accounts/http/router.go -o api/accounts --instanceName swagger
package accounts

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/accounts"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Accounts"],
                "summary": "Register an account",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/accountsdk.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/accountsdk.RegisterResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/accountsdk.APIError"}},
                    "409": {"description": "Username or email already taken", "schema": {"$ref": "#/definitions/accountsdk.APIError"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/accountsdk.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/accountsdk.APIError"}}
                }
            }
        },
        "/auth/password/request": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Accounts"],
                "summary": "Request a password reset code",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/accountsdk.EmailRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/accountsdk.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/accountsdk.APIError"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/accountsdk.APIError"}}
                }
            }
        },
        "/auth/password/reset": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Accounts"],
                "summary": "Reset a password",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/accountsdk.ResetPasswordRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/accountsdk.MessageResponse"}},
                    "400": {"description": "code_mismatch, password_mismatch or weak_password", "schema": {"$ref": "#/definitions/accountsdk.APIError"}},
                    "404": {"description": "No profile for that email", "schema": {"$ref": "#/definitions/accountsdk.APIError"}},
                    "410": {"description": "code_expired", "schema": {"$ref": "#/definitions/accountsdk.APIError"}}
                }
            }
        },
        "/auth/verify-email": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Accounts"],
                "summary": "Send an email verification link",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/accountsdk.EmailRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/accountsdk.MessageResponse"}}
                }
            }
        },
        "/auth/verify-token": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Accounts"],
                "summary": "Describe the caller",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/accountsdk.TokenProfileResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/accountsdk.APIError"}},
                    "404": {"description": "No profile for the token subject", "schema": {"$ref": "#/definitions/accountsdk.APIError"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Login"],
                "summary": "Log in",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/accountsdk.LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/accountsdk.APIError"}},
                    "404": {"description": "No profile for the token subject", "schema": {"$ref": "#/definitions/accountsdk.APIError"}}
                }
            }
        },
        "/auth/loginTfa": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Login"],
                "summary": "Log in with a TOTP code",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/accountsdk.CodeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/accountsdk.LoginTFAResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/accountsdk.APIError"}}
                }
            }
        },
        "/auth/tfa/generate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["image/png", "application/json"],
                "tags": ["TFA"],
                "summary": "Start TFA enrollment",
                "parameters": [{"in": "query", "name": "format", "type": "string", "enum": ["json"], "description": "json for a JSON body"}],
                "responses": {
                    "200": {"description": "QR code PNG, or JSON when format=json", "schema": {"$ref": "#/definitions/accountsdk.TFAGenerateResponse"}},
                    "400": {"description": "already_enabled", "schema": {"$ref": "#/definitions/accountsdk.APIError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/accountsdk.APIError"}}
                }
            }
        },
        "/auth/tfa/confirm": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["TFA"],
                "summary": "Confirm TFA enrollment",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/accountsdk.CodeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/accountsdk.TFAConfirmResponse"}},
                    "400": {"description": "code_required, bad_code or not_started", "schema": {"$ref": "#/definitions/accountsdk.APIError"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/accountsdk.APIError"}}
                }
            }
        },
        "/idp/v1/signin": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Identity Provider"],
                "summary": "Sign in with a password",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/accountsdk.SignInRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/accountsdk.IDTokenResponse"}},
                    "401": {"description": "Invalid email or password", "schema": {"$ref": "#/definitions/accountsdk.APIError"}}
                }
            }
        },
        "/idp/v1/exchange": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Identity Provider"],
                "summary": "Redeem an exchange token",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/accountsdk.ExchangeRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/accountsdk.IDTokenResponse"}},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/accountsdk.APIError"}}
                }
            }
        },
        "/idp/v1/verify-email": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Identity Provider"],
                "summary": "Confirm an email address",
                "parameters": [{"in": "query", "name": "token", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/accountsdk.MessageResponse"}},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/accountsdk.APIError"}}
                }
            }
        },
        "/.well-known/jwks.json": {
            "get": {
                "produces": ["application/json"],
                "tags": ["well-known"],
                "summary": "Get JWKS",
                "responses": {
                    "200": {"description": "The JSON Web Key Set", "schema": {"$ref": "#/definitions/jwtx.JWKS"}}
                }
            }
        },
        "/livez": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/accountsdk.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/accountsdk.HealthResponse"}},
                    "503": {"description": "status, uptime, version, checks - service not ready", "schema": {"$ref": "#/definitions/accountsdk.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "accountsdk.APIError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "error_description": {"type": "string"},
                "fields": {"type": "array", "items": {"$ref": "#/definitions/accountsdk.FieldError"}}
            }
        },
        "accountsdk.FieldError": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "accountsdk.RegisterRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "confirmPassword": {"type": "string"},
                "fullName": {"type": "string"},
                "username": {"type": "string"},
                "phone": {"type": "string"}
            }
        },
        "accountsdk.RegisterResponse": {
            "type": "object",
            "properties": {
                "uid": {"type": "string"},
                "email": {"type": "string"}
            }
        },
        "accountsdk.EmailRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}}
        },
        "accountsdk.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "accountsdk.ResetPasswordRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "code": {"type": "string"},
                "newPassword": {"type": "string"},
                "confirmNewPassword": {"type": "string"}
            }
        },
        "accountsdk.TokenProfileResponse": {
            "type": "object",
            "properties": {
                "uid": {"type": "string"},
                "email": {"type": "string"},
                "emailVerified": {"type": "boolean"},
                "phoneNumber": {"type": "string"},
                "name": {"type": "string"},
                "userName": {"type": "string"},
                "tfaEnabled": {"type": "boolean"}
            }
        },
        "accountsdk.LoginResponse": {
            "type": "object",
            "properties": {
                "tfaRequired": {"type": "boolean"},
                "token": {"type": "string"},
                "authenticated": {"type": "boolean"}
            }
        },
        "accountsdk.CodeRequest": {
            "type": "object",
            "properties": {"code": {"type": "string"}}
        },
        "accountsdk.LoginTFAResponse": {
            "type": "object",
            "properties": {
                "customToken": {"type": "string"},
                "authenticated": {"type": "boolean"}
            }
        },
        "accountsdk.TFAGenerateResponse": {
            "type": "object",
            "properties": {
                "otpauthUrl": {"type": "string"},
                "secret": {"type": "string"}
            }
        },
        "accountsdk.TFAConfirmResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "accountsdk.SignInRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "accountsdk.ExchangeRequest": {
            "type": "object",
            "properties": {"token": {"type": "string"}}
        },
        "accountsdk.IDTokenResponse": {
            "type": "object",
            "properties": {
                "idToken": {"type": "string"},
                "expiresIn": {"type": "integer"}
            }
        },
        "accountsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "version": {"type": "string"},
                "checks": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "jwtx.JWKS": {
            "type": "object",
            "properties": {
                "keys": {"type": "array", "items": {"type": "object"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "ID token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Accounts Service API",
	Description:      "Account registration, password recovery and TOTP two-factor authentication.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
