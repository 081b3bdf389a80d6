// Package importer bulk-creates tasks from a YAML document.
//
// Example input:
//
//	tasks:
//	  - title: Write report
//	    priority: high
//	    project: Work
//	    due_date: 2024-06-01
//	    tags: [writing]
//	    subtasks: [Outline, Draft]
//	    recurrence:
//	      pattern: weekly
//	      interval: 1
package importer
