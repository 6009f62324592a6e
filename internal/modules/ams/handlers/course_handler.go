package handlers

import (
	"github.com/adwelink/ams-api/internal/core/audit"
	"github.com/adwelink/ams-api/internal/core/auth"
	"github.com/adwelink/ams-api/internal/modules/ams/models"
	"github.com/adwelink/ams-api/internal/modules/ams/services"
	"github.com/gofiber/fiber/v2"
)

type CourseHandler struct {
	courses *services.CourseService
	audit   *audit.Service
}

func NewCourseHandler(courses *services.CourseService, auditSvc *audit.Service) *CourseHandler {
	return &CourseHandler{courses: courses, audit: auditSvc}
}

// ListCourses godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param active query boolean false "Only active courses"
// @Success 200 {object} map[string]interface{}
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	activeOnly := c.QueryBool("active", false)
	courses, err := h.courses.List(instituteID, activeOnly)
	if err != nil {
		return fail(c, err, "Failed to list courses")
	}
	return c.JSON(fiber.Map{
		"courses": courses,
		"total":   len(courses),
	})
}

// CreateCourse godoc
// @Summary Create a course
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CourseRequest true "Course"
// @Success 201 {object} models.Course
// @Failure 400 {object} map[string]interface{}
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}

	var req models.CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	course, err := h.courses.Create(instituteID, &req)
	if err != nil {
		return fail(c, err, "Failed to create course")
	}

	if h.audit != nil {
		h.audit.LogChange(c.UserContext(), auth.ActorFromCtx(c), audit.ActionCreate, "course", course.ID.String(), nil, course)
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

// UpdateCourse godoc
// @Summary Update a course
// @Tags Courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param request body models.CourseRequest true "Course"
// @Success 200 {object} models.Course
// @Failure 404 {object} map[string]interface{}
// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid course id")
	}

	var req models.CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	course, err := h.courses.Update(instituteID, id, &req)
	if err != nil {
		return fail(c, err, "Failed to update course")
	}

	if h.audit != nil {
		h.audit.LogChange(c.UserContext(), auth.ActorFromCtx(c), audit.ActionUpdate, "course", id.String(), nil, course)
	}
	return c.JSON(course)
}

// DeleteCourse godoc
// @Summary Delete a course
// @Description Leads and fee records of the course are kept and unlinked
// @Tags Courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *fiber.Ctx) error {
	instituteID, _, err := tenant(c)
	if err != nil {
		return err
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "Invalid course id")
	}

	if err := h.courses.Delete(instituteID, id); err != nil {
		return fail(c, err, "Failed to delete course")
	}

	if h.audit != nil {
		h.audit.LogAction(c.UserContext(), auth.ActorFromCtx(c), audit.ActionDelete, "course", id.String(), "")
	}
	return c.JSON(fiber.Map{"message": "Course deleted"})
}
