package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Clinic API",
        "description": "Campus health clinic administration service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and password management"},
        {"name": "Profile", "description": "Student profile onboarding"},
        {"name": "Appointments", "description": "Slot booking and triage"},
        {"name": "Records", "description": "Clinical visits and prescriptions"},
        {"name": "Enrollment", "description": "Student account creation"},
        {"name": "Students", "description": "Staff roster views and downloads"},
        {"name": "Dashboard", "description": "Landing views"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Change password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Validation failed"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current account",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/student/profile": {
            "get": {
                "tags": ["Profile"],
                "summary": "Get own profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Profile"],
                "summary": "Complete own profile",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CompleteProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Student dashboard",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/appointments": {
            "get": {
                "tags": ["Appointments"],
                "summary": "List own upcoming appointments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Appointments"],
                "summary": "Book an appointment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookAppointmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Slot already booked"}
                }
            }
        },
        "/student/appointments/{id}": {
            "delete": {
                "tags": ["Appointments"],
                "summary": "Cancel own appointment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/student/visits": {
            "get": {
                "tags": ["Records"],
                "summary": "Own visit history",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/prescriptions": {
            "get": {
                "tags": ["Records"],
                "summary": "Own active prescriptions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Staff dashboard",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff/appointments": {
            "get": {
                "tags": ["Appointments"],
                "summary": "List all appointments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff/appointments/{id}/status": {
            "put": {
                "tags": ["Appointments"],
                "summary": "Update appointment status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetAppointmentStatusRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/staff/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Enrollment"],
                "summary": "Add a single student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate student"}
                }
            }
        },
        "/staff/students/import": {
            "post": {
                "tags": ["Enrollment"],
                "summary": "Bulk import students from xlsx",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/EnrollmentReport"}}
                }
            }
        },
        "/staff/students/export": {
            "get": {
                "tags": ["Students"],
                "summary": "Download the student roster as CSV",
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/staff/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Student detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/staff/students/{id}/visits": {
            "get": {
                "tags": ["Records"],
                "summary": "Student visit history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Records"],
                "summary": "Record a clinical visit",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordVisitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found"}
                }
            }
        },
        "/staff/students/{id}/visits/export": {
            "get": {
                "tags": ["Students"],
                "summary": "Download a student visit history as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "identifier": {"type": "string", "description": "Student number or email"},
                "password": {"type": "string"}
            },
            "required": ["identifier", "password"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "new_password": {"type": "string"},
                "confirm_password": {"type": "string"}
            },
            "required": ["new_password", "confirm_password"]
        },
        "CompleteProfileRequest": {
            "type": "object",
            "properties": {
                "id_number": {"type": "string"},
                "date_of_birth": {"type": "string"},
                "citizenship": {"type": "string"},
                "disability": {"type": "string"},
                "gender": {"type": "string", "enum": ["Male", "Female", "Other"]},
                "marital_status": {"type": "string", "enum": ["Single", "Married", "Other"]},
                "cellphone_number": {"type": "string"}
            },
            "required": ["id_number", "date_of_birth", "citizenship", "gender", "marital_status", "cellphone_number"]
        },
        "BookAppointmentRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "description": "YYYY-MM-DD"},
                "time": {"type": "string", "description": "HH:MM between 08:00 and 17:00"},
                "reason": {"type": "string"}
            },
            "required": ["date", "time", "reason"]
        },
        "SetAppointmentStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["pending", "confirmed", "cancelled"]}
            },
            "required": ["status"]
        },
        "RecordVisitRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "description": "YYYY-MM-DD"},
                "diagnosis": {"type": "string"},
                "notes": {"type": "string"},
                "medication": {"type": "string"},
                "dosage": {"type": "string"},
                "instructions": {"type": "string"},
                "duration_days": {"type": "integer"}
            },
            "required": ["date", "diagnosis"]
        },
        "AddStudentRequest": {
            "type": "object",
            "properties": {
                "student_number": {"type": "string"},
                "name": {"type": "string"},
                "surname": {"type": "string"},
                "id_number": {"type": "string"}
            },
            "required": ["student_number", "name", "surname", "id_number"]
        },
        "EnrollmentReport": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "created": {"type": "integer"},
                "skipped": {"type": "integer"},
                "errors": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
