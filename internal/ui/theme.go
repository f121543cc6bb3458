package ui

import "strings"

// themeStorageKey is the localStorage key holding an explicit "light" or
// "dark" choice. Without one the page follows the system setting.
const themeStorageKey = "bikedash-theme"

// themeInitScript runs in <head> so the first paint already uses the stored
// theme. It exposes window.bikedashTheme for the toggle script.
var themeInitScript = strings.ReplaceAll(`(function(){
  var root=document.documentElement;
  var media=window.matchMedia('(prefers-color-scheme: dark)');
  function stored(){
    try { var v=localStorage.getItem('KEY'); return v==='light'||v==='dark'?v:''; } catch (_) { return ''; }
  }
  function resolve(){ return stored()||(media.matches?'dark':'light'); }
  function paint(){
    root.setAttribute('data-color-mode', stored()||'auto');
    root.setAttribute('data-light-theme', resolve());
  }
  function choose(mode){
    try { localStorage.setItem('KEY', mode); } catch (_) {}
    paint();
  }
  paint();
  window.bikedashTheme={resolve:resolve, paint:paint, choose:choose, media:media};
})();`, "KEY", themeStorageKey)

// themeBehaviorScript wires #theme-toggle: one click flips the resolved
// theme and pins it. System changes repaint only while nothing is pinned.
const themeBehaviorScript = `(function(){
  var theme=window.bikedashTheme;
  var toggle=document.getElementById('theme-toggle');
  if(!theme||!toggle){ return; }
  function sync(){
    var dark=theme.resolve()==='dark';
    document.getElementById('theme-icon-sun').classList.toggle('is-hidden', dark);
    document.getElementById('theme-icon-moon').classList.toggle('is-hidden', !dark);
    var label=dark?'Switch to light theme':'Switch to dark theme';
    toggle.setAttribute('aria-label', label);
    toggle.setAttribute('title', label);
  }
  toggle.addEventListener('click', function(){
    theme.choose(theme.resolve()==='dark'?'light':'dark');
    sync();
  });
  theme.media.addEventListener('change', function(){ theme.paint(); sync(); });
  sync();
})();`
