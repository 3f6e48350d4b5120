package renderer

// Built-in templates for the standard content types. A course overrides any
// of these by shipping a file of the same name in its template directory.
var defaultTemplates = map[string]string{
	"container.html": `<div class="container-module">
  <h2>{{.DisplayName}}</h2>
  <ol class="container-items">
  {{range .Items}}
    <li class="{{.IconClass}}">
      <a href="/courseware/{{.Location}}">{{.DisplayName}}</a>
      {{if .Progress}}<span class="progress">{{.Progress}}</span>{{end}}
    </li>
  {{end}}
  </ol>
</div>`,

	"sequential.html": `<div class="sequence" data-position="{{.Position}}" data-ajax-url="{{.AjaxURL}}">
  <h2>{{.DisplayName}}</h2>
  <nav class="sequence-nav">
  {{range $i, $item := .Items}}
    <button class="seq-tab {{$item.IconClass}}{{if eq $i $.Position}} active{{end}}" data-index="{{$i}}">{{$item.DisplayName}}</button>
  {{end}}
  </nav>
  {{range $i, $item := .Items}}
  <section class="seq-item{{if eq $i $.Position}} active{{end}}">{{htmlSafe $item.Content}}</section>
  {{end}}
</div>`,

	"video.html": `<div class="video-module" data-ajax-url="{{.AjaxURL}}" data-position="{{.Position}}">
  <h3>{{.DisplayName}}</h3>
  {{if .YouTube}}
  <iframe src="https://www.youtube.com/embed/{{.YouTube}}" allowfullscreen></iframe>
  {{else if .URL}}
  <video controls src="{{.URL}}"></video>
  {{end}}
</div>`,

	"problem.html": `<div class="problem-module" data-ajax-url="{{.AjaxURL}}">
  <h3>{{.DisplayName}}</h3>
  <div class="problem-prompt">{{htmlSafe .Prompt}}</div>
  <form class="problem-form">
    <input type="text" name="answer" value="{{.Answer}}">
    <button type="submit">Check</button>
    {{if .ShowAnswer}}<button type="button" class="show-answer">Show Answer</button>{{end}}
  </form>
  <p class="problem-status">
    {{if .Correct}}correct{{else if gt .Attempts 0}}incorrect{{end}}
    {{if gt .Attempts 0}}({{.Attempts}} attempts){{end}}
  </p>
</div>`,

	"layout.html": `<!DOCTYPE html>
<html>
<head>
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="/static/coursegrid.css">
</head>
<body>
  <main class="courseware">
{{htmlSafe .Content}}
  </main>
  <script>
    const ws = new WebSocket('ws://' + window.location.host + '/ws');
    ws.onmessage = function(event) {
      const message = JSON.parse(event.data);
      if (message.type === 'full_reload') {
        window.location.reload();
      }
    };
  </script>
</body>
</html>`,
}
