package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Complaint Box API",
        "description": "University complaint box: students submit complaints, admins triage and respond",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Registration, login, identity"},
        {"name": "Complaints", "description": "Complaint lifecycle"},
        {"name": "Administration", "description": "Account management, export, statistics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TokenResponse"}},
                    "400": {"description": "Validation error or duplicate email", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TokenResponse"}},
                    "401": {"description": "Incorrect email or password", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/complaints": {
            "get": {
                "tags": ["Complaints"],
                "summary": "List complaints",
                "description": "Students see only their own complaints; admins see all",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Complaint"}}}
                }
            },
            "post": {
                "tags": ["Complaints"],
                "summary": "Submit complaint",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateComplaintRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Complaint"}}
                }
            }
        },
        "/complaints/{id}": {
            "get": {
                "tags": ["Complaints"],
                "summary": "Get complaint",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Complaint"}},
                    "403": {"description": "Not the owner", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/complaints/{id}/status": {
            "patch": {
                "tags": ["Complaints"],
                "summary": "Update complaint status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Complaint"}},
                    "403": {"description": "Admin only", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/complaints/{id}/responses": {
            "post": {
                "tags": ["Complaints"],
                "summary": "Append admin response",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddResponseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Complaint"}},
                    "403": {"description": "Admin only", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/complaints/{id}/feedback": {
            "post": {
                "tags": ["Complaints"],
                "summary": "Submit feedback",
                "description": "Only the complaint owner may rate; resubmission overwrites",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FeedbackRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Complaint"}},
                    "403": {"description": "Not the owner", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/admin/admins": {
            "get": {
                "tags": ["Administration"],
                "summary": "List admin accounts",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/User"}}}
                }
            },
            "post": {
                "tags": ["Administration"],
                "summary": "Create admin account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAdminRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/User"}}
                }
            }
        },
        "/admin/admins/{id}": {
            "put": {
                "tags": ["Administration"],
                "summary": "Update admin account",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateAdminRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}},
                    "404": {"description": "Admin not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            },
            "delete": {
                "tags": ["Administration"],
                "summary": "Delete admin account",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Self-deletion or last admin", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Admin not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/admin/students": {
            "get": {
                "tags": ["Administration"],
                "summary": "List student accounts",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/User"}}}
                }
            }
        },
        "/admin/students/{id}": {
            "delete": {
                "tags": ["Administration"],
                "summary": "Delete student account",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Target is not a student", "schema": {"$ref": "#/definitions/ErrorBody"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ErrorBody"}}
                }
            }
        },
        "/admin/complaints/export": {
            "get": {
                "tags": ["Administration"],
                "summary": "Export complaints",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "tags": ["Administration"],
                "summary": "Complaint statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ComplaintStats"}}
                }
            }
        }
    },
    "definitions": {
        "User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "admin"]},
                "department": {"type": "string"},
                "studentId": {"type": "string"}
            }
        },
        "Complaint": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "department": {"type": "string"},
                "isAnonymous": {"type": "boolean"},
                "status": {"type": "string"},
                "studentId": {"type": "string"},
                "studentName": {"type": "string"},
                "responses": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ComplaintResponse"}
                },
                "feedback": {"$ref": "#/definitions/ComplaintFeedback"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "ComplaintResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "content": {"type": "string"},
                "adminName": {"type": "string"},
                "adminId": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "ComplaintFeedback": {
            "type": "object",
            "properties": {
                "rating": {"type": "integer", "minimum": 1, "maximum": 5},
                "comment": {"type": "string"}
            }
        },
        "ComplaintStats": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "byStatus": {"type": "object"},
                "byCategory": {"type": "object"},
                "generatedAt": {"type": "string"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "admin"]},
                "department": {"type": "string"},
                "studentId": {"type": "string"}
            },
            "required": ["name", "email", "password", "role"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "TokenResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"}
            }
        },
        "CreateComplaintRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "department": {"type": "string"},
                "isAnonymous": {"type": "boolean"}
            },
            "required": ["title", "description", "category", "department"]
        },
        "UpdateStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"}
            },
            "required": ["status"]
        },
        "AddResponseRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"}
            },
            "required": ["content"]
        },
        "FeedbackRequest": {
            "type": "object",
            "properties": {
                "rating": {"type": "integer", "minimum": 1, "maximum": 5},
                "comment": {"type": "string"}
            },
            "required": ["rating", "comment"]
        },
        "CreateAdminRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "department": {"type": "string"}
            },
            "required": ["name", "email", "password"]
        },
        "UpdateAdminRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "department": {"type": "string"}
            }
        },
        "Error": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ErrorBody": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/Error"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
