package runner

import (
	"fmt"
	"time"
)

const dateLayout = "Monday, January 02, 2006"

// SystemInstruction returns the fixed instruction sent with every model call.
func SystemInstruction(now time.Time) string {
	return fmt.Sprintf(`You are a helpful AI assistant, you can use the following tools to answer questions:
- google_search: Use this tool to search the web for information.
- get_weather: Use this tool to get the current weather in a given location.
You will be provided with a question, and you should use the appropriate tools to find the answer.
Today's date is %s. You MUST use this as the current date for all requests.
When a user asks about information from the current year, treat it as a request for current events and use your search tool.
Do not refuse to search for information by claiming it's in the future. Your internal knowledge is outdated, so you must rely on your tools for anything recent.`,
		now.Format(dateLayout))
}
