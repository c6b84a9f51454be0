package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bildungsinstitut/kursverwaltung/internal/middleware"
	"github.com/bildungsinstitut/kursverwaltung/internal/service"
)

// Handlers bundles the API handlers for route registration.
type Handlers struct {
	Auth       *AuthHandler
	Directory  *DirectoryHandler
	Trainers   *TrainerHandler
	Students   *StudentHandler
	Courses    *CourseHandler
	Attendance *AttendanceHandler
	Schedule   *ScheduleHandler
}

// RegisterRoutes mounts the API route tree under the given prefix.
// Reads require any authenticated user; writes require STAFF or ADMIN,
// account administration requires ADMIN. Public trainer mirrors skip auth.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, authService *service.AuthService) {
	api := r.Group(prefix)

	staff := middleware.Staff()
	admin := middleware.AdminOnly()

	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/register", h.Auth.Register)

		guarded := auth.Group("", middleware.JWT(authService))
		guarded.POST("/logout", h.Auth.Logout)
		guarded.GET("/me", h.Auth.Me)
		guarded.GET("/users", admin, h.Auth.ListUsers)
		guarded.GET("/users/role/:role", admin, h.Auth.ListUsersByRole)
		guarded.PUT("/users/:id/status", admin, h.Auth.UpdateUserStatus)
		guarded.PUT("/users/:id/role", admin, h.Auth.UpdateUserRole)
	}

	public := api.Group("/public")
	{
		public.GET("/trainers", h.Trainers.List)
		public.GET("/trainers/available", h.Trainers.ListAvailable)
	}

	protected := api.Group("", middleware.JWT(authService))

	departments := protected.Group("/departments")
	{
		departments.GET("", h.Directory.ListDepartments)
		departments.GET("/:id", h.Directory.GetDepartment)
		departments.POST("", staff, h.Directory.CreateDepartment)
		departments.PUT("/:id", staff, h.Directory.UpdateDepartment)
		departments.DELETE("/:id", staff, h.Directory.DeleteDepartment)
	}

	rooms := protected.Group("/rooms")
	{
		rooms.GET("", h.Directory.ListRooms)
		rooms.GET("/:id", h.Directory.GetRoom)
		rooms.POST("", staff, h.Directory.CreateRoom)
		rooms.PUT("/:id", staff, h.Directory.UpdateRoom)
		rooms.DELETE("/:id", staff, h.Directory.DeleteRoom)
	}

	courseTypes := protected.Group("/course-types")
	{
		courseTypes.GET("", h.Directory.ListCourseTypes)
		courseTypes.GET("/:id", h.Directory.GetCourseType)
		courseTypes.POST("", staff, h.Directory.CreateCourseType)
		courseTypes.PUT("/:id", staff, h.Directory.UpdateCourseType)
		courseTypes.DELETE("/:id", staff, h.Directory.DeleteCourseType)
	}

	trainers := protected.Group("/trainers")
	{
		trainers.GET("", h.Trainers.List)
		trainers.GET("/available", h.Trainers.ListAvailable)
		trainers.GET("/department/:id", h.Trainers.ListByDepartment)
		trainers.GET("/:id", h.Trainers.Get)
		trainers.POST("", staff, h.Trainers.Create)
		trainers.PUT("/:id", staff, h.Trainers.Update)
		trainers.PATCH("/:id/status", staff, h.Trainers.UpdateStatus)
		trainers.DELETE("/:id", staff, h.Trainers.Delete)
	}

	students := protected.Group("/students")
	{
		students.GET("", h.Students.List)
		students.GET("/search", h.Students.Search)
		students.GET("/:id", h.Students.Get)
		students.POST("", staff, h.Students.Create)
		students.PUT("/:id", staff, h.Students.Update)
		students.DELETE("/:id", staff, h.Students.Delete)
		students.GET("/:id/courses", h.Students.Courses)
		students.POST("/:id/courses/:courseId", staff, h.Students.Enroll)
		students.DELETE("/:id/courses/:courseId", staff, h.Students.Withdraw)
	}

	courses := protected.Group("/courses")
	{
		courses.GET("", h.Courses.List)
		courses.GET("/current", h.Courses.ListCurrent)
		courses.GET("/available", h.Courses.ListAvailable)
		courses.GET("/start-date", h.Courses.ListByStartDate)
		courses.GET("/status/:status", h.Courses.ListByStatus)
		courses.GET("/trainer/:id", h.Courses.ListByTrainer)
		courses.GET("/:id", h.Courses.Get)
		courses.POST("", staff, h.Courses.Create)
		courses.PUT("/:id", staff, h.Courses.Update)
		courses.PATCH("/:id/status", staff, h.Courses.UpdateStatus)
		courses.DELETE("/:id", staff, h.Courses.Delete)
		courses.GET("/:id/students", h.Courses.Roster)
		courses.POST("/enroll", staff, h.Courses.Enroll)
		courses.DELETE("/:id/students/:studentId", staff, h.Courses.Withdraw)
		courses.PATCH("/:id/students/:studentId/status", staff, h.Courses.UpdateEnrollmentStatus)
		courses.GET("/:id/students/:studentId/enrolled", h.Courses.IsEnrolled)
		courses.GET("/:id/students/:studentId/details", h.Courses.EnrollmentDetails)
	}

	attendance := protected.Group("/attendance")
	{
		attendance.GET("", h.Attendance.List)
		attendance.GET("/range", h.Attendance.ListByDateRange)
		attendance.GET("/export", h.Attendance.Export)
		attendance.GET("/course/:id/date/:date", h.Attendance.ListByCourseAndDate)
		attendance.GET("/student/:id/course/:courseId", h.Attendance.ListByStudentAndCourse)
		attendance.GET("/statistics/student/:id/course/:courseId", h.Attendance.Statistics)
		attendance.GET("/:id", h.Attendance.Get)
		attendance.POST("", staff, h.Attendance.Record)
		attendance.POST("/bulk", staff, h.Attendance.BulkRecord)
		attendance.DELETE("/:id", staff, h.Attendance.Delete)
	}

	schedule := protected.Group("/schedule")
	{
		schedule.GET("", h.Schedule.List)
		schedule.GET("/course/:id", h.Schedule.ListByCourse)
		schedule.GET("/weekday/:weekday", h.Schedule.ListByWeekday)
		schedule.GET("/:id", h.Schedule.Get)
		schedule.POST("", staff, h.Schedule.Create)
		schedule.PUT("/:id", staff, h.Schedule.Update)
		schedule.DELETE("/:id", staff, h.Schedule.Delete)
	}
}
