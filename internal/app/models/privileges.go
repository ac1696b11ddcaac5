package models

// InstructorRole names a preset bundle of course privileges
type InstructorRole string

const (
	RoleCoowner  InstructorRole = "Co-owner"
	RoleManager  InstructorRole = "Manager"
	RoleObserver InstructorRole = "Observer"
	RoleTutor    InstructorRole = "Tutor"
	RoleCustom   InstructorRole = "Custom"
)

// Course-level privilege names
const (
	PrivilegeModifyCourse                   = "canmodifycourse"
	PrivilegeModifyInstructor               = "canmodifyinstructor"
	PrivilegeModifySession                  = "canmodifysession"
	PrivilegeModifyStudent                  = "canmodifystudent"
	PrivilegeViewStudentInSections          = "canviewstudentinsection"
	PrivilegeViewSessionInSections          = "canviewsessioninsection"
	PrivilegeSubmitSessionInSections        = "cansubmitsessioninsection"
	PrivilegeModifySessionCommentInSections = "canmodifysessioncommentinsection"
)

// CoursePrivileges lists every course-level privilege
var CoursePrivileges = []string{
	PrivilegeModifyCourse,
	PrivilegeModifyInstructor,
	PrivilegeModifySession,
	PrivilegeModifyStudent,
	PrivilegeViewStudentInSections,
	PrivilegeViewSessionInSections,
	PrivilegeSubmitSessionInSections,
	PrivilegeModifySessionCommentInSections,
}

// InstructorPrivileges is stored as JSONB on the instructor row
type InstructorPrivileges struct {
	CourseLevel map[string]bool `json:"courseLevel"`
}

// NewPrivilegesForRole returns the preset privileges of a role
func NewPrivilegesForRole(role InstructorRole) InstructorPrivileges {
	p := InstructorPrivileges{CourseLevel: make(map[string]bool, len(CoursePrivileges))}
	for _, name := range CoursePrivileges {
		p.CourseLevel[name] = false
	}

	switch role {
	case RoleCoowner:
		for _, name := range CoursePrivileges {
			p.CourseLevel[name] = true
		}
	case RoleManager:
		for _, name := range CoursePrivileges {
			p.CourseLevel[name] = name != PrivilegeModifyCourse
		}
	case RoleObserver:
		p.CourseLevel[PrivilegeViewStudentInSections] = true
		p.CourseLevel[PrivilegeViewSessionInSections] = true
	case RoleTutor:
		p.CourseLevel[PrivilegeViewStudentInSections] = true
		p.CourseLevel[PrivilegeViewSessionInSections] = true
		p.CourseLevel[PrivilegeSubmitSessionInSections] = true
	}
	return p
}

// IsAllowed reports whether a course-level privilege is granted
func (p InstructorPrivileges) IsAllowed(privilege string) bool {
	return p.CourseLevel[privilege]
}

// IsCoowner reports whether every course-level privilege is granted
func (p InstructorPrivileges) IsCoowner() bool {
	for _, name := range CoursePrivileges {
		if !p.CourseLevel[name] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy
func (p InstructorPrivileges) Clone() InstructorPrivileges {
	if p.CourseLevel == nil {
		return InstructorPrivileges{}
	}
	c := InstructorPrivileges{CourseLevel: make(map[string]bool, len(p.CourseLevel))}
	for k, v := range p.CourseLevel {
		c.CourseLevel[k] = v
	}
	return c
}
