package tools

import "github.com/taskdeck/taskdeck/internal/llm"

// Definitions returns the function schemas offered to the completion API.
// The authenticated user is injected by the dispatcher, so user identity is
// deliberately absent from these schemas; the model cannot choose a user.
func Definitions() []llm.Tool {
	return []llm.Tool{
		{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        ToolAddTask,
				Description: "Create a new task for the user. Use when user wants to add, create, or remember something to do.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"title": map[string]interface{}{
							"type":        "string",
							"description": "The task title/description",
						},
					},
					"required": []string{"title"},
				},
			},
		},
		{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        ToolListTasks,
				Description: "List all tasks for the user. Use when user wants to see, show, or check their tasks.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"filter": map[string]interface{}{
							"type":        "string",
							"enum":        []string{"all", "pending", "completed"},
							"description": "Filter tasks by status",
						},
					},
					"required": []string{},
				},
			},
		},
		{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        ToolCompleteTask,
				Description: "Mark a task as completed. Use when user says they finished or completed a task.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"task_id": map[string]interface{}{
							"type":        "integer",
							"description": "The task ID to mark as complete",
						},
					},
					"required": []string{"task_id"},
				},
			},
		},
		{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        ToolDeleteTask,
				Description: "Delete a task. Use when user wants to remove or cancel a task.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"task_id": map[string]interface{}{
							"type":        "integer",
							"description": "The task ID to delete",
						},
					},
					"required": []string{"task_id"},
				},
			},
		},
		{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        ToolUpdateTask,
				Description: "Update a task's title. Use when user wants to change or rename a task.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"task_id": map[string]interface{}{
							"type":        "integer",
							"description": "The task ID to update",
						},
						"new_title": map[string]interface{}{
							"type":        "string",
							"description": "The new task title",
						},
					},
					"required": []string{"task_id", "new_title"},
				},
			},
		},
	}
}
