package academic

import "github.com/jacobmichels/portal"

// Built-in data written by SeedIfAbsent. Returned as fresh slices so callers may modify them.

func defaultCourses() []portal.Course {
	return []portal.Course{
		{
			Code:          "CIT401",
			Title:         "Advanced Web Development",
			Credits:       3,
			Instructor:    "Dr. Ada Lovelace",
			Syllabus:      []string{"Modern JavaScript Frameworks (React)", "Server-Side Rendering", "GraphQL APIs", "Web Performance Optimization", "Web Security Best Practices"},
			Prerequisites: []string{"CIT301 - Intro to Web Dev", "CIT302 - Database Systems"},
			Color:         portal.ColorPrimary,
		},
		{
			Code:          "CIT402",
			Title:         "Artificial Intelligence",
			Credits:       3,
			Instructor:    "Prof. Alan Turing",
			Syllabus:      []string{"Introduction to AI", "Search Algorithms", "Machine Learning Fundamentals", "Neural Networks", "Natural Language Processing"},
			Prerequisites: []string{"Data Structures & Algorithms"},
			Color:         portal.ColorSecondary,
		},
		{
			Code:          "CIT403",
			Title:         "Network Security",
			Credits:       3,
			Instructor:    "Dr. Grace Hopper",
			Syllabus:      []string{"Cryptography Principles", "Network Attack Vectors", "Firewalls and VPNs", "Intrusion Detection Systems", "Ethical Hacking"},
			Prerequisites: []string{"CIT303 - Computer Networks"},
			Color:         portal.ColorAccent,
		},
		{
			Code:          "CIT404",
			Title:         "Cloud Computing",
			Credits:       3,
			Instructor:    "Prof. John McCarthy",
			Syllabus:      []string{"Cloud Service Models (IaaS, PaaS, SaaS)", "Virtualization Technologies", "Cloud Storage Solutions", "Deploying to AWS/GCP/Azure", "Serverless Architecture"},
			Prerequisites: []string{"Operating Systems", "Computer Networks"},
			Color:         portal.ColorAccentYellow,
		},
		{
			Code:          "CIT405",
			Title:         "Project Management",
			Credits:       2,
			Instructor:    "Mr. Tim Berners-Lee",
			Syllabus:      []string{"Agile vs. Waterfall Methodologies", "Scrum Framework", "Risk Management", "Software Development Life Cycle", "Team Collaboration Tools"},
			Prerequisites: []string{},
			Color:         portal.ColorAccentCyan,
		},
	}
}

func defaultAnnouncements() []portal.Announcement {
	return []portal.Announcement{
		{ID: "1", Title: "Final Year Project Defense Schedule", Content: "The schedule for the final year project defense has been released. Please check the department notice board.", Date: "2024-07-20"},
		{ID: "2", Title: "Guest Lecture on Quantum Computing", Content: "A guest lecture on the future of Quantum Computing will be held on July 25th in the main auditorium.", Date: "2024-07-18"},
		{ID: "3", Title: "Semester Registration Deadline", Content: "The deadline for course registration for the next semester is July 30th. No extensions will be granted.", Date: "2024-07-15"},
	}
}

// ids are assigned at seeding time
func defaultTimetable() []portal.NewTimetableEntry {
	return []portal.NewTimetableEntry{
		{Day: portal.Monday, Time: "09:00 - 11:00", CourseCode: "CIT401", CourseTitle: "Advanced Web Dev", Location: "Lab 3"},
		{Day: portal.Monday, Time: "13:00 - 15:00", CourseCode: "CIT402", CourseTitle: "Artificial Intelligence", Location: "Hall A"},
		{Day: portal.Tuesday, Time: "10:00 - 12:00", CourseCode: "CIT403", CourseTitle: "Network Security", Location: "Lab 1"},
		{Day: portal.Wednesday, Time: "09:00 - 11:00", CourseCode: "CIT401", CourseTitle: "Advanced Web Dev", Location: "Lab 3"},
		{Day: portal.Wednesday, Time: "14:00 - 15:00", CourseCode: "CIT405", CourseTitle: "Project Management", Location: "Hall B"},
		{Day: portal.Thursday, Time: "11:00 - 13:00", CourseCode: "CIT402", CourseTitle: "Artificial Intelligence", Location: "Hall A"},
		{Day: portal.Friday, Time: "13:00 - 15:00", CourseCode: "CIT404", CourseTitle: "Cloud Computing", Location: "Hall C"},
	}
}

// newest semester first
func defaultGrades() []portal.SemesterGrades {
	return []portal.SemesterGrades{
		{
			Semester: "Spring 2024",
			Grades: []portal.Grade{
				{CourseCode: "CIT401", CourseTitle: "Advanced Web Development", Grade: "A"},
				{CourseCode: "CIT402", CourseTitle: "Artificial Intelligence", Grade: "B"},
				{CourseCode: "CIT403", CourseTitle: "Network Security", Grade: "B"},
				{CourseCode: "CIT404", CourseTitle: "Cloud Computing", Grade: "A"},
				{CourseCode: "CIT405", CourseTitle: "Project Management", Grade: "C"},
			},
		},
		{
			Semester: "Fall 2023",
			Grades: []portal.Grade{
				{CourseCode: "CIT301", CourseTitle: "Intro to Web Dev", Grade: "A"},
				{CourseCode: "CIT302", CourseTitle: "Database Systems", Grade: "A"},
				{CourseCode: "CIT303", CourseTitle: "Computer Networks", Grade: "B"},
				{CourseCode: "GEN300", CourseTitle: "General Studies", Grade: "C"},
			},
		},
	}
}
